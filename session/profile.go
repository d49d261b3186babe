package session

import "encoding/json"

// PrivilegedField is the profile field carrying the administrator flag, as issued by the login
// endpoint.
const PrivilegedField = "is_staff"

// Profile is the user profile returned at login. Only PrivilegedField is interpreted; every other
// field passes through untouched.
type Profile map[string]any

// Privileged is true only for a boolean true administrator flag.
func (p Profile) Privileged() bool {
	v, ok := p[PrivilegedField].(bool)
	return ok && v
}

// String returns the field as a string when it is one.
func (p Profile) String(field string) string {
	s, _ := p[field].(string)
	return s
}

// Clone is a shallow copy so callers cannot mutate the session's profile.
func (p Profile) Clone() Profile {
	out := make(Profile, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

func (p Profile) encode() (string, error) {
	if p == nil {
		p = Profile{}
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeProfile(raw string) (Profile, error) {
	p := Profile{}
	if raw == "" {
		return p, nil
	}
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Profile{}, err
	}
	if p == nil {
		p = Profile{}
	}
	return p, nil
}
