package error

import "errors"

var (
	PermissionDenied = errors.New("permission denied")
	TargetGone       = errors.New("no such process")
	MalformedMapLine = errors.New("malformed maps line")
	NeedleParse      = errors.New("not a valid integer or float literal")
	InvalidRangeFlag = errors.New("invalid range boundary flags")
	ShortRead        = errors.New("short read")
	RegionNotFound   = errors.New("region not found")
	EmptyFilter      = errors.New("filter selects no regions")
)
