package protodesc

import "strings"

// enclosingScopes returns the chain of name prefixes to search when
// resolving a symbolic type reference declared within context (a message's
// full name, or a file's package), ordered from innermost to outermost,
// always ending in the empty (root) scope. This implements protobuf's
// "search from the innermost enclosing scope outward" resolution rule.
func enclosingScopes(context string) []string {
	if context == "" {
		return []string{""}
	}
	parts := strings.Split(context, ".")
	scopes := make([]string, 0, len(parts)+1)
	for i := len(parts); i >= 1; i-- {
		scopes = append(scopes, strings.Join(parts[:i], "."))
	}
	scopes = append(scopes, "")
	return scopes
}

// resolveTypeName resolves a type_name/extendee reference (as it appears
// literally in a FieldDescriptorProto, so possibly leading-dot-absolute)
// against the given enclosing scope chain.
func resolveTypeName(resolve resolverFunc, scopes []string, name string) (Descriptor, error) {
	if strings.HasPrefix(name, ".") {
		abs := name[1:]
		if d := resolve(abs); d != nil {
			return d, nil
		}
		return nil, unresolvedErr(name)
	}
	for _, scope := range scopes {
		candidate := name
		if scope != "" {
			candidate = scope + "." + name
		}
		if d := resolve(candidate); d != nil {
			return d, nil
		}
	}
	return nil, unresolvedErr(name)
}

func unresolvedErr(name string) *Error {
	return &Error{Kind: UnresolvedName, Message: "could not resolve type reference " + name}
}

// jsonNameFromFieldName derives the default JSON name of a field from its
// declared (snake_case-ish) name by lower-camel-casing it, per protobuf's
// JSON mapping rule applied whenever json_name is absent.
func jsonNameFromFieldName(name string) string {
	var b strings.Builder
	upperNext := false
	for _, r := range name {
		if r == '_' {
			upperNext = true
			continue
		}
		if upperNext {
			b.WriteRune(toUpperASCII(r))
			upperNext = false
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func toUpperASCII(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - ('a' - 'A')
	}
	return r
}
