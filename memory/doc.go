// Package memory holds the records the service keeps: memories pinned to
// places, uploaded audio clips, admin voice records with their background
// analysis, and photos with generated thumbnails.
//
// Rows live in the database package's store and blobs in the storage
// package's; every error returned is an *errors.AppError.
package memory
