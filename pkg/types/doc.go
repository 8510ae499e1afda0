// Package types defines the entity types, column descriptors, dataset
// configuration and standard errors shared by the OpenTNF GeoPackage
// engine and its command-line tools.
//
// Entity structs mirror one row of an OpenTNF or GeoPackage table. Nullable
// columns are pointers; a nil pointer is stored as NULL.
package types
