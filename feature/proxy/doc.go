// Package proxy keeps the proxy pool in step with the media pool.
//
// Every video in the pool gets a transcoded proxy at the same relative path
// in the proxy root, with the proxy extension. Proxies are matched by stem
// only, so a proxy already moved into a _sent bucket by packaging still
// counts. A proxy older than its source is transcoded again.
package proxy
