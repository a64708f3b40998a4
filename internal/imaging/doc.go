// Package imaging provides the shared pixel-level utilities the detection
// pipeline is built on: screenshot loading with input validation,
// luminance and variance statistics over regions, rectangle/IoU geometry,
// and raster resampling for template comparison.
//
// # Coordinate System
//
// All coordinates use the standard image convention: origin (0, 0) at the
// top-left corner, X increasing rightward, Y increasing downward. Regions
// use inclusive top-left and exclusive bottom-right corners.
//
// # Pixel Values
//
// Statistics operate on 8-bit channel values (0-255). Luminance follows
// ITU-R BT.601 weighting (0.299*R + 0.587*G + 0.114*B).
package imaging
