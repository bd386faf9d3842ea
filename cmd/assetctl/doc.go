// Package main (cmd/assetctl) is a command line client for stored assets.
//
// Commands run the storage adapter built from the configuration file, or go through a
// running asset server when --server-addr is set:
//
//	assetctl --config assets.yaml upload ./cover.png
//	assetctl --config assets.yaml exists cover.png
//	assetctl --server-addr http://127.0.0.1:8080 read https://cdn.example.com/blog/cover.png -o cover.png
//	assetctl --config assets.yaml delete cover.png
//	assetctl --config assets.yaml id "Photo Name.PNG"
//	assetctl --config assets.yaml seed ./cover.png
package main
