// Package classtest turns classgen descriptions into parsed class models for
// linter tests.
package classtest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/715d/classlint/internal/classgen"
	"github.com/715d/classlint/pkg/classfile"
	"github.com/715d/classlint/pkg/lint"
)

// Parse writes c to class-file bytes and parses them back.
func Parse(t testing.TB, c classgen.Class) *classfile.ClassModel {
	t.Helper()
	data, err := c.Bytes()
	require.NoError(t, err, "writing %s", c.Name)
	cls, err := classfile.Parse(data)
	require.NoError(t, err, "parsing %s", c.Name)
	return cls
}

// Context parses every class and returns them keyed by internal name.
func Context(t testing.TB, classes ...classgen.Class) lint.PackageContext {
	t.Helper()
	ctx := make(lint.PackageContext, len(classes))
	for _, c := range classes {
		cls := Parse(t, c)
		ctx[cls.Name] = cls
	}
	return ctx
}

// Method returns a public method with an assembled body.
func Method(name, desc, body string) classgen.Method {
	return classgen.Method{Name: name, Desc: desc, Access: classgen.Public, Code: classgen.MustAssemble(body)}
}

// Ctor returns a public constructor calling Object.<init> followed by body.
func Ctor(desc, body string) classgen.Method {
	return classgen.Method{
		Name:   "<init>",
		Desc:   desc,
		Access: classgen.Public,
		Code: classgen.MustAssemble(`
			aload 0
			invokespecial java/lang/Object <init> ()V
		` + body),
	}
}

// Messages returns the message of every finding.
func Messages(fs []lint.Finding) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Message
	}
	return out
}
