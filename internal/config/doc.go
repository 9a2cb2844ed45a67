// Package config loads the authflow configuration from
// ~/.config/authflow/config.yaml (or a directory given on the command
// line). The file lists named endpoints, each carrying the OAuth2
// endpoints and client identity used to obtain credentials for one
// remote API. A missing file is not an error; defaults apply.
package config
