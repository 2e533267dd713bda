// Package gputype defines the backend-agnostic value types shared by every
// layer of the RHI core: buffer/texture usage flags, pixel formats, and
// sampler/vertex descriptors. None of these types reach into a concrete
// GPU API; a backend translates them to its own native enums.
package gputype
