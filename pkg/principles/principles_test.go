package principles

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/715d/classlint/internal/classgen"
	"github.com/715d/classlint/internal/classtest"
	"github.com/715d/classlint/pkg/lint"
	"github.com/715d/classlint/pkg/platform"
)

func oneMethod(name string, m classgen.Method) classgen.Class {
	return classgen.Class{Name: name, Methods: []classgen.Method{m}}
}

func requireMessages(t *testing.T, want []string, fs []lint.Finding) {
	t.Helper()
	got := classtest.Messages(fs)
	if len(want) == 0 {
		require.Empty(t, got)
		return
	}
	require.Equal(t, want, got)
}

func TestFeatureEnvy(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "mostly foreign calls",
			body: `
				line 7
				aload 1
				invokevirtual com/example/Account balance ()I
				aload 1
				invokevirtual com/example/Account limit ()I
				aload 1
				invokevirtual com/example/Account fee ()I
				aload 1
				invokevirtual com/example/Ledger post ()V
				return
			`,
			want: []string{"feature envy: 75% of accesses are to com.example.Account (3/4 accesses)"},
		},
		{
			name: "own class accesses are not tallied",
			body: `
				aload 0
				getfield com/example/Report total I
				aload 0
				getfield com/example/Report count I
				aload 1
				invokevirtual com/example/Account balance ()I
				aload 1
				invokevirtual com/example/Account limit ()I
				return
			`,
			want: []string{"feature envy: 100% of accesses are to com.example.Account (2/2 accesses)"},
		},
		{
			name: "balanced",
			body: `
				aload 1
				invokevirtual com/example/Account balance ()I
				aload 1
				invokevirtual com/example/Ledger post ()V
				aload 1
				invokevirtual com/example/Audit record ()V
				aload 0
				getfield com/example/Report total I
				return
			`,
		},
		{
			name: "own class never envied",
			body: `
				aload 0
				getfield com/example/Report total I
				aload 0
				getfield com/example/Report count I
				aload 0
				invokevirtual com/example/Report flush ()V
				return
			`,
		},
		{
			name: "core library calls ignored",
			body: `
				aload 1
				invokevirtual java/util/List size ()I
				aload 1
				invokevirtual java/util/List isEmpty ()Z
				aload 1
				invokevirtual com/example/Account fee ()I
				return
			`,
			want: []string{"feature envy: 100% of accesses are to com.example.Account (1/1 accesses)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := classtest.Parse(t, oneMethod("com/example/Report",
				classtest.Method("render", "(Lcom/example/Account;)V", tt.body)))
			fs := NewFeatureEnvy(cls).Lint()
			requireMessages(t, tt.want, fs)
			for _, f := range fs {
				require.Equal(t, "render(Lcom/example/Account;)V", f.Member)
				require.Equal(t, lint.CategoryStyle, f.Category)
			}
		})
	}
}

func TestDemeter(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		want  []string
		lines []int
	}{
		{
			name: "train wreck",
			body: `
				line 4
				aload 1
				invokevirtual com/example/Order customer ()Lcom/example/Customer;
				invokevirtual com/example/Customer address ()Lcom/example/Address;
				line 5
				invokevirtual com/example/Address city ()Ljava/lang/String;
				areturn
			`,
			want: []string{
				"call chain of depth 2 reaches com.example.Customer.address",
				"call chain of depth 3 reaches com.example.Address.city",
			},
			lines: []int{4, 5},
		},
		{
			name: "store breaks the chain",
			body: `
				aload 1
				invokevirtual com/example/Order customer ()Lcom/example/Customer;
				astore 2
				aload 2
				invokevirtual com/example/Customer address ()Lcom/example/Address;
				areturn
			`,
		},
		{
			name: "builders and streams are fluent",
			body: `
				new com/example/QueryBuilder
				dup
				invokespecial com/example/QueryBuilder <init> ()V
				invokevirtual com/example/QueryBuilder where ()Lcom/example/QueryBuilder;
				invokevirtual com/example/QueryBuilder limit ()Lcom/example/QueryBuilder;
				pop
				aload 1
				invokeinterface java/util/List stream ()Ljava/util/stream/Stream;
				aconst_null
				invokeinterface java/util/stream/Stream filter (Ljava/util/function/Predicate;)Ljava/util/stream/Stream;
				pop
				aconst_null
				areturn
			`,
		},
		{
			name: "fluent setter returning its owner",
			body: `
				aload 1
				invokevirtual com/example/Order copy ()Lcom/example/Order;
				invokevirtual com/example/Order setRush ()Lcom/example/Order;
				areturn
			`,
		},
		{
			name: "call on a fresh instance",
			body: `
				new com/example/Order
				dup
				invokespecial com/example/Order <init> ()V
				invokevirtual com/example/Order customer ()Lcom/example/Customer;
				areturn
			`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := classtest.Parse(t, oneMethod("com/example/Shipping",
				classtest.Method("cityOf", "(Lcom/example/Order;)Ljava/lang/Object;", tt.body)))
			fs := NewDemeter(cls).Lint()
			requireMessages(t, tt.want, fs)
			for i, line := range tt.lines {
				require.Equal(t, line, fs[i].Line)
			}
		})
	}
}

func repeat(n int, f func(i int) string) string {
	var b strings.Builder
	for i := range n {
		b.WriteString(f(i))
	}
	return b.String()
}

func TestHollywood(t *testing.T) {
	newOps := func(n int) string {
		return repeat(n, func(int) string {
			return `
				new com/example/Part
				dup
				invokespecial com/example/Part <init> ()V
				pop
			`
		})
	}
	getters := func(n int) string {
		return repeat(n, func(int) string {
			return `
				aload 1
				invokevirtual com/example/Config getValue ()I
				pop
			`
		})
	}
	branches := func(n int) string {
		return repeat(n, func(i int) string {
			return fmt.Sprintf(`
				iconst_0
				ifeq B%d
				B%d:
			`, i, i)
		})
	}
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "creates and branches",
			body: newOps(5) + branches(6),
			want: []string{"likely Hollywood principle violation: new=5, data pulls=0, conditions=6"},
		},
		{
			name: "pulls and branches",
			body: getters(8) + branches(7),
			want: []string{"likely Hollywood principle violation: new=0, data pulls=8, conditions=7"},
		},
		{
			name: "one tally over threshold",
			body: newOps(9) + branches(5),
		},
		{
			name: "platform types ignored",
			body: repeat(5, func(int) string {
				return `
					new java/util/ArrayList
					pop
				`
			}) + branches(6),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := classtest.Parse(t, oneMethod("com/example/Assembler",
				classtest.Method("assemble", "(Lcom/example/Config;)V", "line 3\n"+tt.body+"return")))
			fs := NewHollywood(cls, platform.Default).Lint()
			requireMessages(t, tt.want, fs)
			for _, f := range fs {
				require.Equal(t, 3, f.Line)
			}
		})
	}
}

func TestTemporalCoupling(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "execute without init",
			body: `
				line 9
				aload 1
				invokevirtual com/example/Job execute ()V
				return
			`,
			want: []string{"com.example.Job.execute()V called on local job without prior setup in this method"},
		},
		{
			name: "init then execute",
			body: `
				aload 1
				invokevirtual com/example/Job init ()V
				aload 1
				invokevirtual com/example/Job execute ()V
				return
			`,
		},
		{
			name: "setup on another local",
			body: `
				aload 2
				invokevirtual com/example/Job open ()V
				aload 1
				invokevirtual com/example/Job sendAll ()V
				return
			`,
			want: []string{"com.example.Job.sendAll()V called on local job without prior setup in this method"},
		},
		{
			name: "platform owner",
			body: `
				aload 2
				invokevirtual java/io/Writer flush ()V
				return
			`,
		},
		{
			name: "builder-ish call",
			body: `
				aload 1
				invokevirtual com/example/Job withRetries ()Lcom/example/Job;
				pop
				return
			`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := classtest.Method("run", "(Lcom/example/Job;Lcom/example/Job;)V", tt.body)
			m.Locals = []classgen.Local{{Slot: 1, Name: "job", Desc: "Lcom/example/Job;"}}
			cls := classtest.Parse(t, oneMethod("com/example/Scheduler", m))
			fs := NewTemporalCoupling(cls, platform.Default).Lint()
			requireMessages(t, tt.want, fs)
		})
	}
}

func TestOpenClosed(t *testing.T) {
	publicMethods := func(n int) []classgen.Method {
		var ms []classgen.Method
		for i := range n {
			ms = append(ms, classtest.Method(fmt.Sprintf("op%d", i), "()V", "return"))
		}
		return ms
	}
	tests := []struct {
		name string
		cls  classgen.Class
		want []string
	}{
		{
			name: "public mutable field",
			cls: classgen.Class{
				Name:   "com/example/Point",
				Access: classgen.Public | classgen.Final,
				Fields: []classgen.Field{
					{Name: "x", Desc: "I", Access: classgen.Public},
					{Name: "ORIGIN", Desc: "I", Access: classgen.Public | classgen.Static},
					{Name: "y", Desc: "I", Access: classgen.Public | classgen.Final},
				},
			},
			want: []string{"public mutable field(s) x allow modification without extension"},
		},
		{
			name: "wide class without abstraction",
			cls: classgen.Class{
				Name:    "com/example/Service",
				Access:  classgen.Public,
				Methods: publicMethods(5),
			},
			want: []string{
				"class has 5 public methods but implements no interface; it should define an abstraction",
				"class exposes 5 overridable method(s) with no extension points; it should be final",
			},
		},
		{
			name: "implements an interface",
			cls: classgen.Class{
				Name:       "com/example/Service",
				Access:     classgen.Public,
				Interfaces: []string{"com/example/Api"},
				Methods:    publicMethods(6),
			},
		},
		{
			name: "abstract class heavy on concrete methods",
			cls: classgen.Class{
				Name:   "com/example/Base",
				Access: classgen.Public | classgen.Abstract,
				Methods: append(publicMethods(3),
					classgen.Method{Name: "hook", Desc: "()V", Access: classgen.Protected | classgen.Abstract}),
			},
			want: []string{"abstract class has 3 concrete and 1 abstract methods; behavior is fixed rather than extended"},
		},
		{
			name: "interface",
			cls: classgen.Class{
				Name:   "com/example/Api",
				Access: classgen.Public | classgen.Interface | classgen.Abstract,
				Fields: []classgen.Field{{Name: "x", Desc: "I", Access: classgen.Public}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := NewOpenClosed(classtest.Parse(t, tt.cls)).Lint()
			requireMessages(t, tt.want, fs)
		})
	}
}

func TestDependencyInversion(t *testing.T) {
	ctx := classtest.Context(t,
		classgen.Class{Name: "com/example/Service", Access: classgen.Public},
		classgen.Class{Name: "com/example/Repo", Access: classgen.Public | classgen.Interface | classgen.Abstract},
	)
	target := classgen.Class{
		Name:   "com/example/Controller",
		Access: classgen.Public,
		Fields: []classgen.Field{
			{Name: "service", Desc: "Lcom/example/Service;", Access: classgen.Private},
			{Name: "repo", Desc: "Lcom/example/Repo;", Access: classgen.Private},
			{Name: "names", Desc: "Ljava/util/List;", Access: classgen.Private},
		},
		Methods: []classgen.Method{
			classtest.Ctor("()V", `
				aload 0
				new com/example/Service
				dup
				invokespecial com/example/Service <init> ()V
				putfield com/example/Controller service Lcom/example/Service;
				return
			`),
			classtest.Method("handle", "(Lcom/example/Service;Lcom/example/Repo;)V", "return"),
		},
	}
	cls := classtest.Parse(t, target)
	ctx[cls.Name] = cls

	fs := NewDependencyInversion(cls, ctx, platform.Default).Lint()
	requireMessages(t, []string{
		"field service depends on concrete class com.example.Service",
		"instantiates concrete class com.example.Service directly",
		"parameter of handle depends on concrete class com.example.Service",
	}, fs)

	t.Run("abstract target", func(t *testing.T) {
		target := target
		target.Access = classgen.Public | classgen.Abstract
		require.Empty(t, NewDependencyInversion(classtest.Parse(t, target), ctx, platform.Default).Lint())
	})
}

func TestSingleResponsibility(t *testing.T) {
	bodyless := func(n int) []classgen.Method {
		var ms []classgen.Method
		for i := range n {
			ms = append(ms, classgen.Method{Name: fmt.Sprintf("m%d", i), Desc: "()V", Access: classgen.Public | classgen.Abstract})
		}
		return ms
	}
	fields := func(n int) []classgen.Field {
		var fs []classgen.Field
		for i := range n {
			fs = append(fs, classgen.Field{Name: fmt.Sprintf("f%d", i), Desc: "I", Access: classgen.Private})
		}
		return fs
	}
	readers := func(n int) []classgen.Method {
		var ms []classgen.Method
		for i := range n {
			ms = append(ms, classtest.Method(fmt.Sprintf("read%d", i), "()I", fmt.Sprintf(`
				aload 0
				getfield com/example/Big f%d I
				ireturn
			`, i)))
		}
		return ms
	}
	trivial := func(n int) []classgen.Method {
		var ms []classgen.Method
		for i := range n {
			ms = append(ms, classtest.Method(fmt.Sprintf("noop%d", i), "()V", "return"))
		}
		return ms
	}
	tests := []struct {
		name string
		cls  classgen.Class
		want []string
	}{
		{
			name: "too many methods",
			cls:  classgen.Class{Name: "com/example/Big", Access: classgen.Abstract, Methods: bodyless(21)},
			want: []string{"class declares 21 methods (max 20)"},
		},
		{
			name: "too many fields",
			cls:  classgen.Class{Name: "com/example/Big", Fields: fields(16)},
			want: []string{"class declares 16 fields (max 15)"},
		},
		{
			name: "too many collaborators",
			cls: classgen.Class{Name: "com/example/Big", Methods: []classgen.Method{
				classtest.Method("wire", "()V", repeat(11, func(i int) string {
					return fmt.Sprintf("invokestatic com/example/Dep%d get ()V\n", i)
				})+"return"),
			}},
			want: []string{"class calls into 11 other classes (max 10)"},
		},
		{
			name: "low cohesion",
			cls:  classgen.Class{Name: "com/example/Big", Fields: fields(4), Methods: readers(4)},
			want: []string{"low cohesion: 6 method pairs share no fields across 4 methods"},
		},
		{
			name: "cohesive",
			cls:  classgen.Class{Name: "com/example/Big", Fields: fields(2), Methods: readers(2)},
		},
		{
			name: "stateless class has no cohesion to lose",
			cls:  classgen.Class{Name: "com/example/Big", Methods: trivial(5)},
		},
		{
			name: "fields no method touches",
			cls:  classgen.Class{Name: "com/example/Big", Fields: fields(2), Methods: trivial(5)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := NewSingleResponsibility(classtest.Parse(t, tt.cls)).Lint()
			requireMessages(t, tt.want, fs)
		})
	}
}
