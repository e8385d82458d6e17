package onboarding

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/tidwall/gjson"
)

var ErrMalformedProfile = errors.New("malformed profile payload")

// stepAliases are read in order; the first key present on the merged record wins.
var stepAliases = []string{"onboarding_step", "onboardingStep", "current_step"}

// DecodeProfile reads a profile response. It accepts the {data: {profile, user}} envelope,
// a bare {profile, user} object, or a flat profile object, and merges user over profile.
func DecodeProfile(raw []byte) (Profile, error) {
	if !gjson.ValidBytes(raw) {
		return Profile{}, fmt.Errorf("%w: invalid json", ErrMalformedProfile)
	}

	root := gjson.ParseBytes(raw)
	data := root
	if d := root.Get("data"); d.Exists() {
		data = d
	}
	if !data.IsObject() {
		return Profile{}, fmt.Errorf("%w: data is not an object", ErrMalformedProfile)
	}

	profilePart := data.Get("profile")
	userPart := data.Get("user")
	if !profilePart.Exists() && !userPart.Exists() {
		profilePart = data
	}

	var out Profile
	for _, part := range []gjson.Result{profilePart, userPart} {
		if !part.IsObject() {
			continue
		}
		if err := sonic.UnmarshalString(part.Raw, &out); err != nil {
			return Profile{}, fmt.Errorf("%w: %v", ErrMalformedProfile, err)
		}
	}

	lookup := func(key string) gjson.Result {
		if v := userPart.Get(key); v.Exists() {
			return v
		}
		return profilePart.Get(key)
	}
	for _, alias := range stepAliases {
		v := lookup(alias)
		if !v.Exists() {
			continue
		}
		step, err := stepValue(v)
		if err != nil {
			return Profile{}, err
		}
		out.SetStep(step)
		break
	}

	if out.Status == "" {
		out.Status = StatusNormal
	}
	return out, nil
}

func stepValue(v gjson.Result) (*int, error) {
	switch v.Type {
	case gjson.Null:
		return nil, nil
	case gjson.Number:
		n := int(v.Int())
		return &n, nil
	case gjson.String:
		s := strings.TrimSpace(v.Str)
		if s == "" || strings.EqualFold(s, "null") {
			return nil, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%w: onboarding step %q", ErrMalformedProfile, v.Str)
		}
		return &n, nil
	default:
		return nil, fmt.Errorf("%w: onboarding step has type %s", ErrMalformedProfile, v.Type)
	}
}
