// Package config handles configuration loading, parsing, and validation from
// defaults, an optional config file and TASKAPI_-prefixed environment
// variables.
package config
