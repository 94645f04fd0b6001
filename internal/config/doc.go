// Package config defines the format-agnostic model of a mesh application
// along with the Loader interface for reading it from concrete formats.
//
// The config.Model is the single source of truth for the mesh compiler,
// the computation registry, and the schema generator. Concrete loaders,
// such as for HCL and YAML, live in separate packages.
package config
