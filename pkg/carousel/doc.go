// Package carousel manages ordered image carousels attached to arbitrary
// owner entities such as products, categories or pages.
//
// The Service interface covers the whole item lifecycle: uploading images
// as new items, bulk editing and deleting, nudging an item up or down, and
// renumbering the items of an owner to 10, 20, 30 after every mutation.
// Every mutation ends with a single change event so hosts can invalidate
// cached renderings.
//
// Repositories (memory, Postgres), blob stores (memory, filesystem, S3,
// MinIO) and the image processor live in subpackages and are wired with
// functional options:
//
//	svc, err := carousel.New(
//		carousel.WithRepository(memoryrepo.New()),
//		carousel.WithBlobStore(memorystorage.New()),
//		carousel.WithImageProcessor(imaging.New()),
//		carousel.WithOwnerResolver(registry),
//	)
package carousel
