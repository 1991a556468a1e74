package webhook

import (
	"bytes"
	"fmt"
	"io"
	"maps"
	"regexp"
	"slices"
	"strings"
	"text/template"
	"time"

	"github.com/srand/hookd/pkg/log"
	"github.com/srand/hookd/pkg/scheduler"
	"github.com/srand/hookd/pkg/utils"
)

// Routes served by hookd itself. Webhooks cannot use these names.
var ReservedNames = []string{"healthcheck", "logs", "metrics"}

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// A webhook definition.
type Webhook struct {
	// Name of the webhook, also its URL path.
	Name string `mapstructure:"name" yaml:"name"`

	// Shell command template. Parameters are available as {{ .name }},
	// each value quoted for the shell.
	Command string `mapstructure:"command" yaml:"command"`

	// Working directory of the command.
	Cwd string `mapstructure:"cwd" yaml:"cwd,omitempty"`

	// Abort the command after this duration. Zero means no limit.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty"`

	// Declared parameters and their default values.
	Parameters map[string]string `mapstructure:"parameters" yaml:"parameters,omitempty"`

	template *template.Template
}

func (w *Webhook) Validate() error {
	if !validName.MatchString(w.Name) {
		return fmt.Errorf("invalid webhook name %q", w.Name)
	}

	if slices.Contains(ReservedNames, w.Name) {
		return fmt.Errorf("webhook name %q is reserved", w.Name)
	}

	if strings.TrimSpace(w.Command) == "" {
		return fmt.Errorf("webhook %s has no command", w.Name)
	}

	if w.Timeout < 0 {
		return fmt.Errorf("webhook %s has a negative timeout", w.Name)
	}

	tmpl, err := template.New(w.Name).Option("missingkey=error").Parse(w.Command)
	if err != nil {
		return fmt.Errorf("webhook %s has an invalid command: %w", w.Name, err)
	}

	// Reject references to undeclared parameters up front.
	if err := tmpl.Execute(io.Discard, w.Parameters); err != nil {
		return fmt.Errorf("webhook %s has an invalid command: %w", w.Name, err)
	}

	w.template = tmpl
	return nil
}

// Merge the given parameters with the declared defaults.
// Undeclared parameters are rejected.
func (w *Webhook) Resolve(parameters map[string]string) (map[string]string, error) {
	resolved := maps.Clone(w.Parameters)
	if resolved == nil {
		resolved = map[string]string{}
	}

	for key, value := range parameters {
		if _, ok := w.Parameters[key]; !ok {
			return nil, fmt.Errorf("%w: webhook %s has no parameter %q", utils.ErrBadRequest, w.Name, key)
		}
		resolved[key] = value
	}

	return resolved, nil
}

// Render the shell command for the given parameters.
func (w *Webhook) Render(parameters map[string]string) (string, error) {
	if w.template == nil {
		return "", fmt.Errorf("webhook %s has not been validated", w.Name)
	}

	quoted := make(map[string]string, len(parameters))
	for key, value := range parameters {
		quoted[key] = ShellQuote(value)
	}

	var script bytes.Buffer
	if err := w.template.Execute(&script, quoted); err != nil {
		return "", fmt.Errorf("failed to render command of webhook %s: %w", w.Name, err)
	}

	return script.String(), nil
}

func (w *Webhook) Log() {
	log.Info("Webhook", w.Name)
	log.Info("  command:", w.Command)
	if w.Cwd != "" {
		log.Info("  cwd:", w.Cwd)
	}
	if w.Timeout > 0 {
		log.Info("  timeout:", w.Timeout)
	}
	for _, key := range slices.Sorted(maps.Keys(w.Parameters)) {
		log.Infof("  parameter: %s (default %q)", key, w.Parameters[key])
	}
}

// Quote a string for use as a single POSIX shell word.
func ShellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
}

// Set of webhook definitions, indexed by name.
type Registry struct {
	webhooks map[string]*Webhook
}

func NewRegistry(webhooks []Webhook) (*Registry, error) {
	registry := &Registry{webhooks: map[string]*Webhook{}}

	for i := range webhooks {
		webhook := webhooks[i]
		if err := webhook.Validate(); err != nil {
			return nil, err
		}

		if _, ok := registry.webhooks[webhook.Name]; ok {
			return nil, fmt.Errorf("duplicate webhook name %q", webhook.Name)
		}

		registry.webhooks[webhook.Name] = &webhook
	}

	return registry, nil
}

func (r *Registry) Get(name string) (*Webhook, error) {
	webhook, ok := r.webhooks[name]
	if !ok {
		return nil, fmt.Errorf("%w: no webhook named %q", utils.ErrNotFound, name)
	}
	return webhook, nil
}

// Names of all webhooks, sorted.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.webhooks))
}

// Create a task for the named webhook.
func (r *Registry) NewTask(name string, parameters map[string]string) (*scheduler.Task, error) {
	webhook, err := r.Get(name)
	if err != nil {
		return nil, err
	}

	resolved, err := webhook.Resolve(parameters)
	if err != nil {
		return nil, err
	}

	return scheduler.NewTask(name, resolved, scheduler.WithTimeout(webhook.Timeout)), nil
}
