package env

import (
	"github.com/kelseyhightower/envconfig"

	"github.com/custodia-labs/ggbackup/internal/core/ports/driven"
)

// Prefix is prepended to every variable name.
const Prefix = "GGBACKUP"

// Ensure Overlay implements the interface.
var _ driven.ConfigStore = (*Overlay)(nil)

// Variables lists the recognised environment variables, named from the
// field names (ClientSecrets is GGBACKUP_CLIENT_SECRETS). Unset variables
// stay nil so the underlying store is consulted.
type Variables struct {
	ClientSecrets     *string  `split_words:"true"`
	Credentials       *string  `split_words:"true"`
	Target            *string  `split_words:"true"`
	Datestamp         *bool    `split_words:"true"`
	Nosettings        *bool    `split_words:"true"`
	HistoryEnabled    *bool    `split_words:"true"`
	HistoryPath       *string  `split_words:"true"`
	PageSize          *int64   `split_words:"true"`
	RequestsPerSecond *float64 `split_words:"true"`
}

// values returns the set variables keyed like the configuration file.
func (v *Variables) values() map[string]any {
	out := make(map[string]any)
	if v.ClientSecrets != nil {
		out["client_secrets"] = *v.ClientSecrets
	}
	if v.Credentials != nil {
		out["credentials"] = *v.Credentials
	}
	if v.Target != nil {
		out["target"] = *v.Target
	}
	if v.Datestamp != nil {
		out["datestamp"] = *v.Datestamp
	}
	if v.Nosettings != nil {
		out["nosettings"] = *v.Nosettings
	}
	if v.HistoryEnabled != nil {
		out["history.enabled"] = *v.HistoryEnabled
	}
	if v.HistoryPath != nil {
		out["history.path"] = *v.HistoryPath
	}
	if v.PageSize != nil {
		out["api.page_size"] = *v.PageSize
	}
	if v.RequestsPerSecond != nil {
		out["api.requests_per_second"] = *v.RequestsPerSecond
	}
	return out
}

// Overlay answers from the environment first and falls back to base.
type Overlay struct {
	base   driven.ConfigStore
	values map[string]any
}

// NewOverlay reads the GGBACKUP_ variables and layers them over base.
// A variable that cannot be parsed (GGBACKUP_DATESTAMP=maybe) is an error.
func NewOverlay(base driven.ConfigStore) (*Overlay, error) {
	o := &Overlay{base: base}
	if err := o.Load(); err != nil {
		return nil, err
	}
	return o, nil
}

// Load re-reads the environment and reloads the base store.
func (o *Overlay) Load() error {
	var vars Variables
	if err := envconfig.Process(Prefix, &vars); err != nil {
		return err
	}
	o.values = vars.values()
	return o.base.Load()
}

// Get returns the environment value for key, or the base store's value.
func (o *Overlay) Get(key string) (any, bool) {
	if v, ok := o.values[key]; ok {
		return v, true
	}
	return o.base.Get(key)
}

// GetString retrieves a string value.
func (o *Overlay) GetString(key string) string {
	if v, ok := o.values[key].(string); ok {
		return v
	}
	return o.base.GetString(key)
}

// GetInt retrieves an integer value.
func (o *Overlay) GetInt(key string) int {
	if v, ok := o.values[key].(int64); ok {
		return int(v)
	}
	return o.base.GetInt(key)
}

// GetFloat retrieves a numeric value.
func (o *Overlay) GetFloat(key string) float64 {
	switch v := o.values[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return o.base.GetFloat(key)
}

// GetBool retrieves a boolean value.
func (o *Overlay) GetBool(key string) bool {
	if v, ok := o.values[key].(bool); ok {
		return v
	}
	return o.base.GetBool(key)
}

// Path returns the base store's file path.
func (o *Overlay) Path() string {
	return o.base.Path()
}
