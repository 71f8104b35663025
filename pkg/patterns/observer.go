package patterns

import (
	"github.com/715d/classlint/pkg/bytecode"
	"github.com/715d/classlint/pkg/classfile"
	"github.com/715d/classlint/pkg/lint"
	"github.com/715d/classlint/pkg/platform"
)

// Observer recognizes observer subjects and implementations. Without a
// package context, implementations cannot be resolved and only subjects are
// reported.
type Observer struct {
	cls *classfile.ClassModel
	ctx lint.PackageContext
}

// NewObserver returns the Observer linter for cls. ctx may be nil.
func NewObserver(cls *classfile.ClassModel, ctx lint.PackageContext) *Observer {
	return &Observer{cls: cls, ctx: ctx}
}

func (l *Observer) Name() string            { return ObserverName }
func (l *Observer) Category() lint.Category { return lint.CategoryPattern }

func (l *Observer) Lint() []lint.Finding {
	c := lint.NewCollector(ObserverName, lint.CategoryPattern, l.cls.Name)
	if l.hasListenerCollection() {
		if line, ok := l.notifyCall(); ok {
			c.Add(lint.SeverityInfo, "", line, "observer subject detected")
			if !l.hasRemoveMethod() {
				c.Add(lint.SeverityWarning, "", 0, "observer subject has no remove/unsubscribe method")
			}
		}
	}
	if iface, ok := l.observerInterface(); ok {
		c.Add(lint.SeverityInfo, "", 0, "observer implementation of %s", classfile.DottedName(iface))
	}
	return c.Findings
}

func (l *Observer) hasListenerCollection() bool {
	for i := range l.cls.Fields {
		if platform.IsCollectionDescriptor(l.cls.Fields[i].Desc) {
			return true
		}
	}
	return false
}

// notifyCall finds a virtual or interface call with a notify-like name and
// returns its line.
func (l *Observer) notifyCall() (int, bool) {
	for i := range l.cls.Methods {
		code := l.cls.Methods[i].Code
		for j, in := range code.All() {
			if in.Kind != bytecode.KindInvoke {
				continue
			}
			if in.Invoke != bytecode.InvokeVirtual && in.Invoke != bytecode.InvokeInterface {
				continue
			}
			if isNotifyName(in.Name) {
				return code.LineAt(j), true
			}
		}
	}
	return 0, false
}

func (l *Observer) hasRemoveMethod() bool {
	for i := range l.cls.Methods {
		if containsAny(l.cls.Methods[i].Name, removeWords) {
			return true
		}
	}
	return false
}

// observerInterface returns the first implemented interface in the context
// that declares a notify-like method.
func (l *Observer) observerInterface() (string, bool) {
	for _, name := range l.cls.Interfaces {
		iface, ok := l.ctx.Lookup(name)
		if !ok {
			continue
		}
		for i := range iface.Methods {
			if isNotifyName(iface.Methods[i].Name) {
				return name, true
			}
		}
	}
	return "", false
}
