package policy

// Ownable is an interface for resources that have an owner.
// Implement this on your models to enable ownership-based authorization.
type Ownable interface {
	GetUserID() uint
}

// Owns checks if the user owns the resource. A nil resource (list/create,
// where there is nothing specific to check yet) is always allowed. Resources
// that do not implement Ownable are denied by default so that a model can
// never be exposed without an explicit ownership check.
func Owns(userID uint, resource any) bool {
	if resource == nil {
		return true
	}
	ownable, ok := resource.(Ownable)
	if !ok {
		return false
	}
	return ownable.GetUserID() == userID
}
