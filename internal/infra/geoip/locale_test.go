package geoip

import "testing"

func TestLanguageForCountry(t *testing.T) {
	tests := map[string]string{"DE": "de", "at": "de", " CH ": "de", "US": "", "": ""}
	for code, want := range tests {
		if got := LanguageForCountry(code); got != want {
			t.Fatalf("LanguageForCountry(%q) = %q, want %q", code, got, want)
		}
	}
}

func TestNewResolverWithoutPath(t *testing.T) {
	r, err := NewResolver(" ")
	if err != nil || r != nil {
		t.Fatalf("NewResolver(\"\") = %v, %v, want nil, nil", r, err)
	}
	var nilResolver *Resolver
	if _, err := nilResolver.CountryCode("1.2.3.4"); err != ErrUnavailable {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}
