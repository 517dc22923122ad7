package driven

// ConfigStore provides access to application configuration.
// Implementations handle persistence (e.g., TOML files) and type conversion.
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	// Returns the value and a boolean indicating if the key exists.
	Get(key string) (any, bool)

	// GetString retrieves a string configuration value.
	// Returns empty string if key doesn't exist or isn't a string.
	GetString(key string) string

	// GetInt retrieves an integer configuration value.
	// Returns 0 if key doesn't exist or isn't an integer.
	GetInt(key string) int

	// GetBool retrieves a boolean configuration value.
	// Returns false if key doesn't exist or isn't a boolean.
	GetBool(key string) bool

	// Set stores a configuration value.
	// The value is persisted immediately.
	Set(key string, value any) error

	// Save persists the current configuration to storage.
	Save() error

	// Load reads configuration from storage.
	Load() error

	// Path returns the configuration file path.
	Path() string
}

// Config keys used by the services and adapters.
const (
	// ConfigGitHubToken is the system-wide GitHub service credential.
	ConfigGitHubToken = "github.token"

	// ConfigWebhookEnabled toggles webhook registration.
	ConfigWebhookEnabled = "webhook.enabled"

	// ConfigWebhookSecret is the shared HMAC secret for callbacks.
	ConfigWebhookSecret = "webhook.secret"

	// ConfigPageURL is the public base URL webhooks call back to.
	ConfigPageURL = "page.url"

	// ConfigWorkerCount sets the dispatcher worker pool size.
	ConfigWorkerCount = "dispatcher.workers"

	// ConfigListenAddr is the serve-mode listen address.
	ConfigListenAddr = "serve.listen"
)
