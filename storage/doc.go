// Backends register themselves with RegisterFactory from an init function,
// so the binary imports the ones it supports:
//
//	import (
//	    _ "github.com/lifemap/memorymap/storage/local"
//	    _ "github.com/lifemap/memorymap/storage/s3"
//	)
//
//	comp := storage.NewComponent(storage.Config{Enabled: true, Provider: "local"}, &local.Config{BasePath: "uploads"}, log)
package storage
