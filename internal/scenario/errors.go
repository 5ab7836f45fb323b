package scenario

import "errors"

var (
	ErrNodeNotFound         = errors.New("node not found")
	ErrLaneNotFound         = errors.New("lane not found")
	ErrUnknownBodyType      = errors.New("unknown body type")
	ErrStarLimit            = errors.New("star limit exceeded")
	ErrBodyLimit            = errors.New("body limit exceeded")
	ErrMissingParent        = errors.New("missing parent star")
	ErrReassignmentRequired = errors.New("reassignment required")
	ErrDuplicateLane        = errors.New("duplicate lane")
	ErrMultipleStarParents  = errors.New("multiple star parents")
	ErrInvalidLane          = errors.New("invalid lane")
	ErrInvalidOwnership     = errors.New("invalid ownership")
	ErrPlayerSlotConflict   = errors.New("player slot conflict")
	ErrInvalidLoot          = errors.New("invalid loot")
	ErrArtifactNotAllowed   = errors.New("artifact not allowed")
	ErrStarCrossing         = errors.New("star boundary crossing forbidden")
	ErrInvalidSettings      = errors.New("invalid settings")
	ErrSnapshotNotFound     = errors.New("snapshot not found")
)
