/*
Package httpserver exposes a storage adapter over HTTP.

# Asset API

  - POST /api/assets: multipart upload, field "file". Answers {"url": "..."}.
  - GET /api/assets/exists?filename=&target_dir=: answers {"exists": bool}.
  - DELETE /api/assets?filename=: answers 204.
  - GET /api/assets/content?path=: answers the raw bytes.

The adapter's serving hook runs in front of the router, so files kept by the local store
are answered directly under their URL prefix.

Adapter errors map to status codes: ErrInvalidPath is 400, not found conditions are 404,
remote upload, delete and read failures are 502.

# Operational Endpoints

  - /livez and /readyz for health checks
  - /drain and /undrain to take the instance out of rotation
  - /debug/pprof when profiling is enabled
  - Prometheus metrics on a separate listener

Client implements interfaces.StorageAdapter on top of this API.
*/
package httpserver
