package resolver

import "fmt"

// ErrorKind categorizes a configuration failure.
type ErrorKind string

const (
	KindEmptyModelList    ErrorKind = "empty_model_list"
	KindMissingModelID    ErrorKind = "missing_model_id"
	KindDuplicateModelID  ErrorKind = "duplicate_model_id"
	KindMissingBaseURL    ErrorKind = "missing_base_url"
	KindInvalidParameter  ErrorKind = "invalid_parameter"
	KindMissingCredential ErrorKind = "missing_credential"
)

// ConfigError reports why a routing set was rejected. ModelID, Field and Key
// identify the offending entry so operators can fix the document directly.
type ConfigError struct {
	Kind    ErrorKind
	ModelID string
	Field   string
	Key     string
	Message string
}

func (e *ConfigError) Error() string {
	switch e.Kind {
	case KindEmptyModelList:
		return "config: models must not be empty"
	case KindMissingModelID:
		return fmt.Sprintf("config: model at index %s has no id", e.Field)
	case KindDuplicateModelID:
		return fmt.Sprintf("config: duplicate model id %q", e.ModelID)
	case KindMissingBaseURL:
		return fmt.Sprintf("config: model %q has no base_url (set it on the model, the global section, or use a known provider)", e.ModelID)
	case KindMissingCredential:
		return fmt.Sprintf("config: model %q has no credential under %s", e.ModelID, e.Key)
	case KindInvalidParameter:
		return fmt.Sprintf("config: model %q: %s", e.ModelID, e.Message)
	default:
		return fmt.Sprintf("config: %s", e.Kind)
	}
}

// Is matches on Kind so callers can test against the sentinels below.
func (e *ConfigError) Is(target error) bool {
	t, ok := target.(*ConfigError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

var (
	ErrEmptyModelList    = &ConfigError{Kind: KindEmptyModelList}
	ErrMissingModelID    = &ConfigError{Kind: KindMissingModelID}
	ErrDuplicateModelID  = &ConfigError{Kind: KindDuplicateModelID}
	ErrMissingBaseURL    = &ConfigError{Kind: KindMissingBaseURL}
	ErrInvalidParameter  = &ConfigError{Kind: KindInvalidParameter}
	ErrMissingCredential = &ConfigError{Kind: KindMissingCredential}
)
