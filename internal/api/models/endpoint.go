package models

// Config is the persisted configuration as exposed over the API.
type Config struct {
	Endpoint   string `json:"endpoint"`
	Configured bool   `json:"configured"`
}

// ConfigUpdateRequest replaces the stored configuration.
type ConfigUpdateRequest struct {
	Endpoint string `json:"endpoint"`

	// SkipVerify stores the endpoint without probing it first.
	SkipVerify bool `json:"skipVerify,omitempty"`
}

// VerifyRequest asks for an endpoint check. An empty endpoint checks the
// stored one.
type VerifyRequest struct {
	Endpoint string `json:"endpoint,omitempty"`
}

// VerifyResult is the outcome of an endpoint check.
type VerifyResult struct {
	Endpoint string `json:"endpoint"`
	Outcome  string `json:"outcome"`
}

// QueryRequest runs a raw query fragment. The ml: prefix is declared
// automatically.
type QueryRequest struct {
	Query string `json:"query"`
}
