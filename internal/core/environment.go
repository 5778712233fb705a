package core

import (
	"fmt"
	"net/url"
	"strings"
)

// Environment describes an identity provider deployment (a "cloud").
// It is immutable once handed to a provider.
type Environment struct {
	// Name identifies the environment, e.g. "AzureCloud".
	Name string `yaml:"name" json:"name"`

	// AuthorityURL is the Active Directory endpoint including the trailing slash,
	// e.g. "https://login.microsoftonline.com/".
	AuthorityURL string `yaml:"authority_url" json:"authority_url"`

	// DefaultDirectory is the directory used for unscoped requests, e.g. "common".
	DefaultDirectory string `yaml:"default_directory" json:"default_directory"`

	// ResourceManagerURL is the default resource requested by the CLI.
	ResourceManagerURL string `yaml:"resource_manager_url" json:"resource_manager_url"`

	// GraphURL is informational only.
	GraphURL string `yaml:"graph_url" json:"graph_url"`
}

var (
	AzureCloud = Environment{
		Name:               "AzureCloud",
		AuthorityURL:       "https://login.microsoftonline.com/",
		DefaultDirectory:   "common",
		ResourceManagerURL: "https://management.core.windows.net/",
		GraphURL:           "https://graph.windows.net/",
	}
	AzureChinaCloud = Environment{
		Name:               "AzureChinaCloud",
		AuthorityURL:       "https://login.chinacloudapi.cn/",
		DefaultDirectory:   "common",
		ResourceManagerURL: "https://management.core.chinacloudapi.cn/",
		GraphURL:           "https://graph.chinacloudapi.cn/",
	}
	AzureUSGovernment = Environment{
		Name:               "AzureUSGovernment",
		AuthorityURL:       "https://login.microsoftonline.us/",
		DefaultDirectory:   "common",
		ResourceManagerURL: "https://management.core.usgovcloudapi.net/",
		GraphURL:           "https://graph.windows.net/",
	}
	AzureGermanCloud = Environment{
		Name:               "AzureGermanCloud",
		AuthorityURL:       "https://login.microsoftonline.de/",
		DefaultDirectory:   "common",
		ResourceManagerURL: "https://management.core.cloudapi.de/",
		GraphURL:           "https://graph.cloudapi.de/",
	}
)

// PredefinedEnvironments returns the built-in environments in display order.
func PredefinedEnvironments() []Environment {
	return []Environment{AzureCloud, AzureChinaCloud, AzureUSGovernment, AzureGermanCloud}
}

// LookupEnvironment resolves a built-in environment by name (case-insensitive).
func LookupEnvironment(name string) (Environment, bool) {
	for _, env := range PredefinedEnvironments() {
		if strings.EqualFold(env.Name, name) {
			return env, true
		}
	}
	return Environment{}, false
}

// Equal reports whether both environments carry the same configuration.
func (e Environment) Equal(other Environment) bool {
	return e == other
}

// DefaultAuthority is the authority used for the home tenant.
func (e Environment) DefaultAuthority() string {
	return e.AuthorityURL + e.DefaultDirectory
}

// TenantAuthority is the authority used for a specific tenant.
func (e Environment) TenantAuthority(tenant string) string {
	return e.AuthorityURL + tenant + "/"
}

func (e Environment) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("environment name is required")
	}
	if e.AuthorityURL == "" {
		return fmt.Errorf("environment '%s' is missing authority_url", e.Name)
	}
	u, err := url.Parse(e.AuthorityURL)
	if err != nil {
		return fmt.Errorf("environment '%s' has invalid authority_url: %w", e.Name, err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("environment '%s' authority_url must be http(s), got '%s'", e.Name, u.Scheme)
	}
	if !strings.HasSuffix(e.AuthorityURL, "/") {
		return fmt.Errorf("environment '%s' authority_url must end with '/'", e.Name)
	}
	if e.DefaultDirectory == "" {
		return fmt.Errorf("environment '%s' is missing default_directory", e.Name)
	}
	return nil
}

func (e Environment) String() string {
	return e.Name
}
