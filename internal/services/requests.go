package services

type ScanRequest struct {
	RootPath       string
	FollowSymlinks bool
	MaxDepth       int
	IncludeHidden  bool
}

type ActionType string

const (
	ActionDelete ActionType = "delete"
	ActionReveal ActionType = "reveal"
)

type ActionRequest struct {
	Type         ActionType
	TargetPaths  []string
	SafeMode     bool
	ConfirmToken string
}
