// Package types defines the domain types shared by the entityprop packages:
// properties, field definitions, entity types, global settings, the form
// element model and the standard errors.
package types
