// Package server exposes the kerf pipeline as an HTTP service.
//
// Routes:
//
//	POST /api/offset    adjusted drawing as DXF
//	POST /api/preview   PNG of the original and adjusted contours
//	POST /api/contours  JSON assembly and offset report
//	GET  /api/cache     result cache statistics
//	GET  /health/live
//	GET  /health/ready
//
// The drawing is sent as the raw request body or as the "file" field of a
// multipart form. The offset comes from the amount query parameter, or
// half of the kerf parameter; inside=true shrinks parts instead of growing
// them. Without parameters the configured offset is used.
package server
