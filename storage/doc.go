// Package storage implements the asset storage adapter and its backends.
//
// The Adapter stores uploaded assets in a remote asset service and, when configured,
// consults a local file store first for reads and existence checks:
//
//   - S3-compatible object storage (S3Service)
//   - IPFS through the node's mutable file system and a public gateway (IPFSService)
//   - Local file system fallback with a serving hook (LocalFileStore)
//
// # Remote Location Format
//
// Remote services are specified using URI format:
//
//	[scheme]://[auth@]host[:port][/path][?params]
//
// Supported URI schemes:
//
//   - s3://bucket-name/prefix/?region=us-west-2
//   - s3://ACCESS_KEY:SECRET_KEY@bucket-name/?endpoint=http://minio:9000&path_style=true
//   - ipfs://127.0.0.1:5001/assets?gateway=https://ipfs.io
//
// Credentials may also come from the auth block of the configuration
// (access_key_id, secret_access_key, region, endpoint).
//
// # Storage Identifiers
//
// Every filename maps to a storage identifier: the sanitized base name with its extension
// removed, prefixed with the configured upload folder. "Photo Name.PNG" stored with folder
// "blog" becomes "blog/Photo Name". The mapping is pure, so Save, Exists and Delete always
// agree on the identifier of a filename.
//
// # Reads
//
// Read tries the local store first when one is configured. Only a local ErrNotFound sends
// the read on to a single GET of the same path against the remote side; any other local
// failure is returned as is. Without a local store the path is fetched directly.
//
// # Usage Example
//
//	factory := storage.NewRemoteServiceFactory(logger)
//	adapter, err := storage.NewAdapterFromConfig(cfg, factory, observer, nil, logger)
//	if err != nil {
//		return err
//	}
//
//	url, err := adapter.Save(ctx, interfaces.Asset{Path: tmpPath, Name: "Photo Name.PNG"})
//	exists, _ := adapter.Exists(ctx, "Photo Name.PNG", "")
package storage
