package protodesc

import (
	"fmt"

	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/protoval/protoreflect/wireformat"
)

// optionSet holds the result of interpreting a descriptor's
// uninterpreted_option list: custom (extension) options, keyed by their
// fully-qualified extension field name. Embedded into every descriptor
// struct so each gets a CustomOption accessor for free.
type optionSet struct {
	custom map[string]interface{}
}

func (o *optionSet) setCustom(name string, v interface{}) {
	if o.custom == nil {
		o.custom = map[string]interface{}{}
	}
	o.custom[name] = v
}

// CustomOption returns the interpreted value of a custom (extension)
// option by its fully-qualified name, e.g. "my.pkg.my_option".
func (o *optionSet) CustomOption(name string) (interface{}, bool) {
	v, ok := o.custom[name]
	return v, ok
}

// interpretFileOptions runs the option interpreter (component D) over
// every descriptor in fd that carries uninterpreted_option entries. Each
// uninterpreted_option's dotted name is resolved as an extension field of
// the appropriate *Options message (FileOptions, MessageOptions, ...)
// against the pool (via resolve), and the value is recorded via
// optionSet.setCustom. The value is converted by its representation only:
// an identifier becomes a bool for a bool field and stays a string
// otherwise, a string literal becomes a Go string for a string field and
// stays []byte otherwise, and numbers are stored as given. The value is
// not checked against the field's kind.
//
// Aggregate option values (curly-brace text-format literals) require the
// textformat collaborator; when none is wired in (the common case for a
// pool built purely from binary FileDescriptorProtos) they are skipped
// without error, per the spec's "without it, aggregate options are
// silently ignored" rule.
func interpretFileOptions(fd *FileDescriptor, resolve resolverFunc) error {
	scopes := enclosingScopes(fd.Package())

	interpretOne := func(extendeeFQN string, opts *optionSet, uninterp []*descriptorpb.UninterpretedOption) error {
		for _, opt := range uninterp {
			if err := interpretOption(fd, resolve, scopes, extendeeFQN, opts, opt); err != nil {
				return err
			}
		}
		return nil
	}

	if err := interpretOne("google.protobuf.FileOptions", &fd.opts, fd.proto.GetOptions().GetUninterpretedOption()); err != nil {
		return err
	}
	for _, md := range fd.allMessages() {
		if err := interpretOne("google.protobuf.MessageOptions", &md.opts, md.proto.GetOptions().GetUninterpretedOption()); err != nil {
			return err
		}
		for _, f := range md.fields {
			if err := interpretOne("google.protobuf.FieldOptions", &f.opts, f.proto.GetOptions().GetUninterpretedOption()); err != nil {
				return err
			}
		}
		for _, ex := range md.extensions {
			if err := interpretOne("google.protobuf.FieldOptions", &ex.opts, ex.proto.GetOptions().GetUninterpretedOption()); err != nil {
				return err
			}
		}
		for _, o := range md.oneofs {
			if err := interpretOne("google.protobuf.OneofOptions", &o.opts, o.proto.GetOptions().GetUninterpretedOption()); err != nil {
				return err
			}
		}
		for _, e := range md.enums {
			if err := interpretOne("google.protobuf.EnumOptions", &e.opts, e.proto.GetOptions().GetUninterpretedOption()); err != nil {
				return err
			}
			for _, v := range e.values {
				if err := interpretOne("google.protobuf.EnumValueOptions", &v.opts, v.proto.GetOptions().GetUninterpretedOption()); err != nil {
					return err
				}
			}
		}
	}
	for _, ex := range fd.extensions {
		if err := interpretOne("google.protobuf.FieldOptions", &ex.opts, ex.proto.GetOptions().GetUninterpretedOption()); err != nil {
			return err
		}
	}
	for _, ed := range fd.enums {
		if err := interpretOne("google.protobuf.EnumOptions", &ed.opts, ed.proto.GetOptions().GetUninterpretedOption()); err != nil {
			return err
		}
		for _, v := range ed.values {
			if err := interpretOne("google.protobuf.EnumValueOptions", &v.opts, v.proto.GetOptions().GetUninterpretedOption()); err != nil {
				return err
			}
		}
	}
	for _, sd := range fd.services {
		if err := interpretOne("google.protobuf.ServiceOptions", &sd.opts, sd.proto.GetOptions().GetUninterpretedOption()); err != nil {
			return err
		}
		for _, m := range sd.methods {
			if err := interpretOne("google.protobuf.MethodOptions", &m.opts, m.proto.GetOptions().GetUninterpretedOption()); err != nil {
				return err
			}
		}
	}
	return nil
}

func interpretOption(fd *FileDescriptor, resolve resolverFunc, scopes []string, extendeeFQN string, opts *optionSet, opt *descriptorpb.UninterpretedOption) error {
	if len(opt.GetName()) == 0 {
		return newError(fd.Name(), InvalidOption, "option has no name")
	}
	first := opt.GetName()[0]
	if !first.GetIsExtension() {
		// A built-in option field protoc failed to parse directly; without
		// a compiled google.protobuf.descriptor.proto options schema at
		// hand to set it on, we have nothing further to do here (the
		// typed field remains absent on the generated Options struct).
		return nil
	}
	name := first.GetNamePart()
	if len(opt.GetName()) > 1 {
		return nil
	}

	// Only single-component extension names (the common case for custom
	// options) are resolved; deeper paths such as (ext).sub_field are
	// skipped without error. The name is
	// resolved the same way a type reference is: absolute if dot-prefixed,
	// otherwise searched from the declaring file's package scope outward
	// (so an extension declared in an imported file, in the same or an
	// enclosing package, still resolves) against the whole pool, not just
	// this file's own symbols.
	d, err := resolveTypeName(resolve, scopes, name)
	if err != nil {
		return newError(fd.Name(), InvalidOption, "unknown option %q for %s", name, extendeeFQN)
	}
	extField, ok := d.(*FieldDescriptor)
	if !ok || extField.extendeeName != extendeeFQN {
		return newError(fd.Name(), InvalidOption, "unknown option %q for %s", name, extendeeFQN)
	}

	val, err := coerceOptionValue(extField, opt)
	if err != nil {
		return newError(fd.Name(), InvalidOption, "option %q: %v", name, err)
	}
	if val != nil {
		opts.setCustom(extField.FullName(), val)
	}
	return nil
}

func coerceOptionValue(fd *FieldDescriptor, opt *descriptorpb.UninterpretedOption) (interface{}, error) {
	switch {
	case opt.IdentifierValue != nil:
		if fd.kind == wireformat.KindBool {
			return opt.GetIdentifierValue() == "true", nil
		}
		return opt.GetIdentifierValue(), nil
	case opt.StringValue != nil:
		if fd.kind == wireformat.KindString {
			return string(opt.GetStringValue()), nil
		}
		return opt.GetStringValue(), nil
	case opt.PositiveIntValue != nil:
		return opt.GetPositiveIntValue(), nil
	case opt.NegativeIntValue != nil:
		return opt.GetNegativeIntValue(), nil
	case opt.DoubleValue != nil:
		return opt.GetDoubleValue(), nil
	case opt.AggregateValue != nil:
		// No text-format collaborator wired into the pool builder by
		// default; aggregate values are silently ignored (spec §4.D, §9).
		return nil, nil
	default:
		return nil, fmt.Errorf("option value has no recognized representation")
	}
}
