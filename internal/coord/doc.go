// Package coord turns the coordinate text found in user CSV files into
// numbers that a projection can consume.
//
// Two notations are recognised. Values containing a degree sign are read as
// degrees-minutes-seconds ("40°26'46\"N"); everything else is treated as a
// loosely formatted number whose leading and trailing decoration is ignored
// ("~123.45 m"). Anything that does not reduce to a finite number is reported
// as ErrMalformedCoordinate.
package coord
