package push

import "context"

// StaticDevice is a fixed execution context, configured rather than probed.
// The terminal front-end uses it to declare itself physical hardware.
type StaticDevice struct {
	Physical bool
	Family   string
}

func (d StaticDevice) IsPhysical() bool { return d.Physical }
func (d StaticDevice) Platform() string { return d.Family }

// StaticPermissions resolves the permission flow to fixed answers: Initial is
// returned before prompting, OnRequest after.
type StaticPermissions struct {
	Initial   PermissionStatus
	OnRequest PermissionStatus
}

func (p StaticPermissions) Status(context.Context) (PermissionStatus, error) {
	return p.Initial, nil
}

func (p StaticPermissions) Request(context.Context) (PermissionStatus, error) {
	return p.OnRequest, nil
}
