package textres

// serviceKey is a unique key per type parameter T.
type serviceKey[T any] struct{}

// ServiceProvider hands out services keyed by type. Implementations must return
// fully resolved services: nothing is looked up lazily after construction.
type ServiceProvider interface {
	service(key any) (any, bool)
}

// Services is a typed service registry passed explicitly to NewFactoryFrom.
// The zero value is empty and ready to use.
type Services struct {
	m map[any]any
}

func (s *Services) service(key any) (any, bool) {
	if s == nil || s.m == nil {
		return nil, false
	}
	v, ok := s.m[key]
	return v, ok
}

// Provide registers svc as the service of type T, replacing any previous one.
// A nil s allocates a new registry, which is returned.
func Provide[T any](s *Services, svc T) *Services {
	if s == nil {
		s = &Services{}
	}
	if s.m == nil {
		s.m = make(map[any]any)
	}
	s.m[serviceKey[T]{}] = svc
	return s
}

// Lookup retrieves the service of type T.
func Lookup[T any](p ServiceProvider) (T, bool) {
	var zero T
	if p == nil {
		return zero, false
	}
	v, ok := p.service(serviceKey[T]{})
	if !ok || v == nil {
		return zero, false
	}
	if tv, ok := v.(T); ok {
		return tv, true
	}
	return zero, false
}

// Require returns the service of type T or a KindServiceUnavailable error.
func Require[T any](p ServiceProvider) (T, error) {
	if v, ok := Lookup[T](p); ok {
		return v, nil
	}
	var zero T
	return zero, &Error{Kind: KindServiceUnavailable, Origin: typeName[T](), Detail: "service " + typeName[T]() + " not provided"}
}
