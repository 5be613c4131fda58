// Package crs resolves coordinate reference system identifiers and
// transforms points between them.
//
// A CRS is described by a proj4 definition string. Definitions come from the
// built-in table, a YAML catalog, the history database, or epsg.io, in that
// order; see Resolver. Engine.Transform converts a single point through a
// PROJ pipeline and has the signature of core.TransformFunc.
//
// Any projection PROJ knows can be used. Datum shifts are the 3 or 7
// parameter +towgs84 kind; grid shifts (+nadgrids other than @null) are not
// supported.
package crs
