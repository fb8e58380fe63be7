package sharing

type PermissionSet struct {
	CanView     bool
	CanComment  bool
	CanDownload bool
}

func FullPermissions() PermissionSet {
	return PermissionSet{CanView: true, CanComment: true, CanDownload: true}
}

func (p PermissionSet) Empty() bool {
	return !p.CanView && !p.CanComment && !p.CanDownload
}

// Union combina permisos de dos caminos independientes (grant + link).
func (p PermissionSet) Union(o PermissionSet) PermissionSet {
	return PermissionSet{
		CanView:     p.CanView || o.CanView,
		CanComment:  p.CanComment || o.CanComment,
		CanDownload: p.CanDownload || o.CanDownload,
	}
}

// Intersect acota p a lo que o permite.
func (p PermissionSet) Intersect(o PermissionSet) PermissionSet {
	return PermissionSet{
		CanView:     p.CanView && o.CanView,
		CanComment:  p.CanComment && o.CanComment,
		CanDownload: p.CanDownload && o.CanDownload,
	}
}

// Allows valida una acción concreta.
func (p PermissionSet) Allows(a Action) bool {
	switch a {
	case ActionView:
		return p.CanView
	case ActionComment:
		return p.CanComment
	case ActionDownload:
		return p.CanDownload
	default:
		return false
	}
}

type Action string

const (
	ActionView     Action = "view"
	ActionComment  Action = "comment"
	ActionDownload Action = "download"
)

// linkPermissions son los permisos que otorga un link activo y desbloqueado.
func linkPermissions(s ShareSettings) PermissionSet {
	return PermissionSet{
		CanView:     true,
		CanComment:  s.AllowComments,
		CanDownload: s.AllowDownload,
	}
}
