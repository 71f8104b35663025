package patterns

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/715d/classlint/internal/classgen"
	"github.com/715d/classlint/internal/classtest"
	"github.com/715d/classlint/pkg/lint"
	"github.com/715d/classlint/pkg/platform"
)

const strategyDesc = "Lcom/example/SortStrategy;"

func strategyContext(ctor classgen.Method, extra ...classgen.Method) classgen.Class {
	return classgen.Class{
		Name: "com/example/Sorter",
		Fields: []classgen.Field{
			{Name: "strategy", Desc: strategyDesc, Access: classgen.Private},
			{Name: "names", Desc: "Ljava/util/List;", Access: classgen.Private},
		},
		Methods: append([]classgen.Method{
			ctor,
			classtest.Method("sort", "([I)V", `
				line 12
				aload 0
				getfield com/example/Sorter strategy `+strategyDesc+`
				aload 1
				invokeinterface com/example/SortStrategy sort ([I)V
				line 13
				aload 0
				getfield com/example/Sorter names Ljava/util/List;
				invokeinterface java/util/List clear ()V
				return
			`),
		}, extra...),
	}
}

func TestStrategy(t *testing.T) {
	tests := []struct {
		name string
		cls  classgen.Class
		want []string
	}{
		{
			name: "constructor injection",
			cls: strategyContext(classtest.Ctor("("+strategyDesc+")V", `
				aload 0
				aload 1
				putfield com/example/Sorter strategy `+strategyDesc+`
				return
			`)),
			want: []string{"strategy field strategy of type com.example.SortStrategy is injected and delegated through 1 call(s): com.example.SortStrategy.sort([I)V@12"},
		},
		{
			name: "setter injection",
			cls: strategyContext(classtest.Ctor("()V", "return"),
				classtest.Method("setStrategy", "("+strategyDesc+")V", `
					aload 0
					aload 1
					putfield com/example/Sorter strategy `+strategyDesc+`
					return
				`)),
			want: []string{"strategy field strategy of type com.example.SortStrategy is injected and delegated through 1 call(s): com.example.SortStrategy.sort([I)V@12"},
		},
		{
			name: "constructed internally",
			cls: strategyContext(classtest.Ctor("("+strategyDesc+")V", `
				aload 0
				new com/example/QuickSort
				dup
				invokespecial com/example/QuickSort <init> ()V
				putfield com/example/Sorter strategy `+strategyDesc+`
				return
			`)),
		},
		{
			name: "receiver slot is not a parameter",
			cls: strategyContext(classtest.Ctor("()V", `
				aload 0
				aload 0
				putfield com/example/Sorter strategy `+strategyDesc+`
				return
			`)),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := classtest.Parse(t, tt.cls)
			got := classtest.Messages(NewStrategy(cls, platform.Default).Lint())
			if tt.want == nil {
				require.Empty(t, got)
				return
			}
			require.Equal(t, tt.want, got)
		})
	}
}

func TestStrategy_ManyDelegations(t *testing.T) {
	body := ""
	for range 4 {
		body += `
			aload 0
			getfield com/example/Sorter strategy ` + strategyDesc + `
			aconst_null
			invokeinterface com/example/SortStrategy sort ([I)V
		`
	}
	cls := classtest.Parse(t, strategyContext(
		classtest.Ctor("("+strategyDesc+")V", `
			aload 0
			aload 1
			putfield com/example/Sorter strategy `+strategyDesc+`
			return
		`),
		classtest.Method("sortAll", "()V", body+"return"),
	))
	got := NewStrategy(cls, platform.Default).Lint()
	require.Len(t, got, 1)
	require.Equal(t, "strategy", got[0].Member)
	require.Equal(t, 12, got[0].Line)
	require.Contains(t, got[0].Message, "delegated through 5 call(s)")
	require.Contains(t, got[0].Message, " ...")
}

func adapterClass(fieldDesc string, ctorDesc string) classgen.Class {
	owner := strings.TrimSuffix(strings.TrimPrefix(fieldDesc, "L"), ";")
	return classgen.Class{
		Name:       "com/example/PrinterAdapter",
		Interfaces: []string{"com/example/Printer"},
		Fields: []classgen.Field{
			{Name: "legacy", Desc: fieldDesc, Access: classgen.Private | classgen.Final},
		},
		Methods: []classgen.Method{
			classtest.Ctor(ctorDesc, `
				aload 0
				aload 1
				putfield com/example/PrinterAdapter legacy `+fieldDesc+`
				return
			`),
			classtest.Method("print", "(Ljava/lang/String;)V", `
				aload 0
				getfield com/example/PrinterAdapter legacy `+fieldDesc+`
				aload 1
				invokevirtual `+owner+` printLine (Ljava/lang/String;)V
				return
			`),
		},
	}
}

func TestAdapter(t *testing.T) {
	tests := []struct {
		name string
		cls  classgen.Class
		want []string
	}{
		{
			name: "adapts legacy type",
			cls:  adapterClass("Lcom/example/LegacyPrinter;", "(Lcom/example/LegacyPrinter;)V"),
			want: []string{"adapter com.example.PrinterAdapter adapts com.example.LegacyPrinter to com.example.Printer; delegating methods: print"},
		},
		{
			name: "field of target type",
			cls:  adapterClass("Lcom/example/Printer;", "(Lcom/example/Printer;)V"),
		},
		{
			name: "constructor without adaptee parameter",
			cls:  adapterClass("Lcom/example/LegacyPrinter;", "(Ljava/lang/Object;)V"),
		},
		{
			name: "no target",
			cls: func() classgen.Class {
				c := adapterClass("Lcom/example/LegacyPrinter;", "(Lcom/example/LegacyPrinter;)V")
				c.Interfaces = nil
				return c
			}(),
		},
		{
			name: "parameter and assignment in different constructors",
			cls: func() classgen.Class {
				c := adapterClass("Lcom/example/LegacyPrinter;", "()V")
				c.Methods[0] = classtest.Ctor("()V", `
					aload 0
					new com/example/LegacyPrinter
					dup
					invokespecial com/example/LegacyPrinter <init> ()V
					putfield com/example/PrinterAdapter legacy Lcom/example/LegacyPrinter;
					return
				`)
				c.Methods = append(c.Methods, classtest.Ctor("(Lcom/example/LegacyPrinter;)V", "return"))
				return c
			}(),
		},
		{
			name: "call after the read is not on the adaptee",
			cls: func() classgen.Class {
				c := adapterClass("Lcom/example/LegacyPrinter;", "(Lcom/example/LegacyPrinter;)V")
				c.Methods[1] = classtest.Method("print", "(Ljava/lang/String;)V", `
					aload 0
					getfield com/example/PrinterAdapter legacy Lcom/example/LegacyPrinter;
					pop
					aload 1
					invokevirtual java/lang/String trim ()Ljava/lang/String;
					pop
					return
				`)
				return c
			}(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classtest.Messages(NewAdapter(classtest.Parse(t, tt.cls)).Lint())
			if tt.want == nil {
				require.Empty(t, got)
				return
			}
			require.Equal(t, tt.want, got)
		})
	}
}

func decoratorClass(name string, fields []classgen.Field, ctorDesc string, methods ...classgen.Method) classgen.Class {
	return classgen.Class{
		Name:       name,
		Interfaces: []string{"com/example/Coffee"},
		Fields:     fields,
		Methods:    append([]classgen.Method{classtest.Ctor(ctorDesc, "return")}, methods...),
	}
}

func TestDecorator(t *testing.T) {
	inner := func(access uint16) []classgen.Field {
		return []classgen.Field{{Name: "inner", Desc: "Lcom/example/Coffee;", Access: access}}
	}
	tests := []struct {
		name string
		cls  classgen.Class
		want []string
	}{
		{
			name: "well formed",
			cls:  decoratorClass("com/example/MilkDecorator", inner(classgen.Private|classgen.Final), "(Lcom/example/Coffee;)V"),
		},
		{
			name: "every mistake",
			cls:  decoratorClass("com/example/MilkDecorator", inner(classgen.Public), "()V"),
			want: []string{
				"exposes its wrapped component publicly (field inner)",
				"wrapped component field inner is not final",
				"no constructor accepts the component to wrap",
			},
		},
		{
			name: "public accessor",
			cls: decoratorClass("com/example/SugarWrapper", inner(classgen.Private|classgen.Final), "(Lcom/example/Coffee;)V",
				classtest.Method("getInner", "()Lcom/example/Coffee;", `
					aload 0
					getfield com/example/SugarWrapper inner Lcom/example/Coffee;
					areturn
				`)),
			want: []string{"exposes its wrapped component publicly (field inner)"},
		},
		{
			name: "no wrapped field",
			cls:  decoratorClass("com/example/MilkDecorator", nil, "()V"),
			want: []string{"appears to be a decorator but has no wrapped component field"},
		},
		{
			name: "not decorator-like",
			cls:  decoratorClass("com/example/Milk", nil, "()V"),
		},
		{
			name: "filter stream subclass",
			cls: classgen.Class{
				Name:   "com/example/CountingStream",
				Super:  "java/io/FilterInputStream",
				Fields: []classgen.Field{{Name: "in2", Desc: "Ljava/io/InputStream;", Access: classgen.Private | classgen.Final}},
				Methods: []classgen.Method{{
					Name: "<init>", Desc: "(Ljava/io/InputStream;)V", Access: classgen.Public,
					Code: classgen.MustAssemble(`
						aload 0
						aload 1
						invokespecial java/io/FilterInputStream <init> (Ljava/io/InputStream;)V
						return
					`),
				}},
			},
			want: []string{"does not share an interface or superclass with its wrapped component java.io.InputStream"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classtest.Messages(NewDecorator(classtest.Parse(t, tt.cls)).Lint())
			if tt.want == nil {
				require.Empty(t, got)
				return
			}
			require.Equal(t, tt.want, got)
		})
	}
}

func subject(methods ...classgen.Method) classgen.Class {
	return classgen.Class{
		Name:   "com/example/Store",
		Fields: []classgen.Field{{Name: "listeners", Desc: "Ljava/util/List;", Access: classgen.Private | classgen.Final}},
		Methods: append([]classgen.Method{
			classtest.Method("fireChanged", "(Lcom/example/Listener;)V", `
				line 30
				aload 1
				invokeinterface com/example/Listener onEvent ()V
				return
			`),
		}, methods...),
	}
}

func TestObserver(t *testing.T) {
	listener := classgen.Class{
		Name:    "com/example/Listener",
		Access:  classgen.Public | classgen.Interface | classgen.Abstract,
		Methods: []classgen.Method{{Name: "onEvent", Desc: "()V", Access: classgen.Public | classgen.Abstract}},
	}
	impl := classgen.Class{
		Name:       "com/example/Printer",
		Interfaces: []string{"com/example/Listener"},
		Methods:    []classgen.Method{classtest.Method("onEvent", "()V", "return")},
	}

	t.Run("subject without remove", func(t *testing.T) {
		got := NewObserver(classtest.Parse(t, subject()), nil).Lint()
		require.Equal(t, []lint.Finding{
			{
				Linter: ObserverName, Category: lint.CategoryPattern, Class: "com/example/Store",
				Line: 30, Severity: lint.SeverityInfo, Message: "observer subject detected",
			},
			{
				Linter: ObserverName, Category: lint.CategoryPattern, Class: "com/example/Store",
				Severity: lint.SeverityWarning, Message: "observer subject has no remove/unsubscribe method",
			},
		}, got)
	})

	t.Run("subject with remove", func(t *testing.T) {
		cls := classtest.Parse(t, subject(classtest.Method("removeListener", "(Lcom/example/Listener;)V", "return")))
		require.Equal(t, []string{"observer subject detected"}, classtest.Messages(NewObserver(cls, nil).Lint()))
	})

	t.Run("implementation needs context", func(t *testing.T) {
		ctx := classtest.Context(t, listener, impl)
		got := classtest.Messages(NewObserver(ctx["com/example/Printer"], ctx).Lint())
		require.Equal(t, []string{"observer implementation of com.example.Listener"}, got)
		require.Empty(t, NewObserver(ctx["com/example/Printer"], nil).Lint())
	})

	t.Run("degenerate interface", func(t *testing.T) {
		require.Empty(t, NewObserver(classtest.Parse(t, listener), nil).Lint())
	})
}
