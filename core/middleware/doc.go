// Package middleware contains HTTP middleware for the review API.
//
// # Components
//
//   - auth: API key validation (X-API-Key header or Bearer token). Paths
//     such as /swagger can be exempted.
//   - rayid: assigns a request id, stores it in the Fiber locals for
//     logger.WithRayID and echoes it in the X-Ray-ID response header.
//
// RayID must be registered first so that every later log line carries it.
package middleware
