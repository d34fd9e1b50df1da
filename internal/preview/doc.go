// Package preview renders assembled and adjusted contours to a PNG image
// so that an offset can be checked before cutting.
package preview
