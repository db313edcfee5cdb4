// Package derive computes presentation values from a weather snapshot: icon and theme
// tags, compass labels, temperature colour bands, cloud labels and display strings.
//
// Every function is pure and total over its documented domain.
package derive
