package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/luacode/lang/ast"
	"github.com/mna/luacode/lang/token"
)

func ident(name string) *ast.IdentExpr {
	return &ast.IdentExpr{Start: token.MakePos(1, 1), Lit: name}
}

func intLit(v int64) *ast.LiteralExpr {
	return &ast.LiteralExpr{Type: token.INT, Start: token.MakePos(1, 1), Int: v, Raw: "0"}
}

func strLit(v string) *ast.LiteralExpr {
	return &ast.LiteralExpr{Type: token.STRING, Start: token.MakePos(1, 1), Str: v, Raw: "\"" + v + "\""}
}

func block(stmts ...ast.Stmt) *ast.Block {
	return &ast.Block{Start: token.MakePos(1, 1), End: token.MakePos(1, 1), Stmts: stmts}
}

func chunk(b *ast.Block) *ast.Chunk {
	return &ast.Chunk{Name: "test", Block: b, EOF: token.MakePos(1, 1)}
}

func TestCompileEmptyChunk(t *testing.T) {
	proto, errs := Compile(chunk(block()))
	require.Empty(t, []*CompileError(*errs))
	require.Len(t, proto.Code, 1)
	assert.Equal(t, RETURN, proto.Code[0].Opcode())
	assert.True(t, proto.IsVararg)
	require.Len(t, proto.Upvalues, 1)
	assert.Equal(t, "_ENV", proto.Upvalues[0].Name)
}

func TestCompileLocalAssignArithmetic(t *testing.T) {
	// local a = 1 + 2
	stmt := &ast.LocalStmt{
		Local: token.MakePos(1, 1),
		Names: []*ast.IdentExpr{ident("a")},
		Right: []ast.Expr{&ast.BinOpExpr{
			Left: intLit(1), Type: token.PLUS, Op: token.MakePos(1, 1), Right: intLit(2),
		}},
	}
	proto, errs := Compile(chunk(block(stmt)))
	require.Empty(t, []*CompileError(*errs))

	// constant folding means the ADD never reaches the instruction stream: the
	// local's initializer becomes a single LOADK of the folded value 3.
	require.GreaterOrEqual(t, len(proto.Code), 2)
	assert.Equal(t, LOADK, proto.Code[0].Opcode())
	require.Len(t, proto.Constants, 1)
	assert.Equal(t, int64(3), proto.Constants[0].Int())
}

func TestCompileGlobalAccessUsesEnvUpvalue(t *testing.T) {
	// x = 1 (global assignment, since x is never declared local)
	stmt := &ast.AssignStmt{
		Left:  []ast.Expr{ident("x")},
		Right: []ast.Expr{intLit(1)},
	}
	proto, errs := Compile(chunk(block(stmt)))
	require.Empty(t, []*CompileError(*errs))

	var sawSetTabUp bool
	for _, instr := range proto.Code {
		if instr.Opcode() == SETTABUP {
			sawSetTabUp = true
			assert.Equal(t, 0, instr.A()) // _ENV is upvalue 0
		}
	}
	assert.True(t, sawSetTabUp, "expected a SETTABUP against the _ENV upvalue")
}

func TestCompileIfElseBalancesRegisters(t *testing.T) {
	// if x then local a = 1 else local b = 2 end
	ifStmt := &ast.IfStmt{
		If:   token.MakePos(1, 1),
		Cond: ident("x"),
		True: block(&ast.LocalStmt{Names: []*ast.IdentExpr{ident("a")}, Right: []ast.Expr{intLit(1)}}),
		ElsePos: token.MakePos(2, 1),
		False: block(&ast.LocalStmt{Names: []*ast.IdentExpr{ident("b")}, Right: []ast.Expr{intLit(2)}}),
		End:   token.MakePos(3, 1),
	}
	proto, errs := Compile(chunk(block(ifStmt)))
	require.Empty(t, []*CompileError(*errs))
	// every register reserved within each branch must be reclaimed once the
	// if statement closes: the function never needed more than 2 slots (the
	// minimum Finish enforces) since both branches declare exactly one local
	// that goes out of scope at the branch's end.
	assert.Equal(t, 2, proto.MaxStack)
}

func TestCompileWhileLoopWithBreak(t *testing.T) {
	// while x do break end
	loop := &ast.WhileStmt{
		While: token.MakePos(1, 1),
		Cond:  ident("x"),
		Body:  block(&ast.BreakStmt{Start: token.MakePos(1, 10)}),
		End:   token.MakePos(2, 1),
	}
	proto, errs := Compile(chunk(block(loop)))
	require.Empty(t, []*CompileError(*errs))

	var sawJump bool
	for _, instr := range proto.Code {
		if instr.Opcode() == JMP {
			sawJump = true
		}
	}
	assert.True(t, sawJump, "expected at least one JMP from the loop condition or the break")
}

func TestCompileBreakOutsideLoopFails(t *testing.T) {
	proto, errs := Compile(chunk(block(&ast.BreakStmt{Start: token.MakePos(1, 1)})))
	require.NotNil(t, proto)
	require.NotEmpty(t, []*CompileError(*errs))
}

func TestCompileNumericFor(t *testing.T) {
	// for i = 1, 10 do end
	loop := &ast.NumericForStmt{
		For:   token.MakePos(1, 1),
		Name:  ident("i"),
		Start: intLit(1),
		Stop:  intLit(10),
		Body:  block(),
		End:   token.MakePos(2, 1),
	}
	proto, errs := Compile(chunk(block(loop)))
	require.Empty(t, []*CompileError(*errs))

	var prep, loopOp = -1, -1
	for i, instr := range proto.Code {
		switch instr.Opcode() {
		case FORPREP:
			prep = i
		case FORLOOP:
			loopOp = i
		}
	}
	require.NotEqual(t, -1, prep)
	require.NotEqual(t, -1, loopOp)
	assert.Less(t, prep, loopOp)
}

func TestCompileFunctionLiteralProducesChildProto(t *testing.T) {
	// local f = function(a) return a end
	fn := &ast.FuncExpr{
		Fn:     token.MakePos(1, 1),
		Params: []*ast.IdentExpr{ident("a")},
		Body:   block(&ast.ReturnStmt{Return: token.MakePos(1, 20), Exprs: []ast.Expr{ident("a")}}),
		End:    token.MakePos(2, 1),
	}
	stmt := &ast.LocalStmt{Names: []*ast.IdentExpr{ident("f")}, Right: []ast.Expr{fn}}
	proto, errs := Compile(chunk(block(stmt)))
	require.Empty(t, []*CompileError(*errs))
	require.Len(t, proto.Protos, 1)
	child := proto.Protos[0]
	assert.Equal(t, 1, child.NumParams)

	var sawClosure bool
	for _, instr := range proto.Code {
		if instr.Opcode() == CLOSURE {
			sawClosure = true
			assert.Equal(t, 0, instr.Bx())
		}
	}
	assert.True(t, sawClosure)
}

func TestCompileTableConstructorMixedFields(t *testing.T) {
	// local t = {1, 2, x = 3}
	tbl := &ast.TableExpr{
		Fields: []*ast.Field{
			{Value: intLit(1)},
			{Value: intLit(2)},
			{Key: ident("x"), Value: intLit(3)},
		},
	}
	stmt := &ast.LocalStmt{Names: []*ast.IdentExpr{ident("t")}, Right: []ast.Expr{tbl}}
	proto, errs := Compile(chunk(block(stmt)))
	require.Empty(t, []*CompileError(*errs))

	var sawNewTable, sawSetList, sawSetTable bool
	for _, instr := range proto.Code {
		switch instr.Opcode() {
		case NEWTABLE:
			sawNewTable = true
		case SETLIST:
			sawSetList = true
		case SETTABLE:
			sawSetTable = true
		}
	}
	assert.True(t, sawNewTable)
	assert.True(t, sawSetList)
	assert.True(t, sawSetTable)
}

func TestCompileMethodCallEmitsSelf(t *testing.T) {
	// x:m(1)
	call := &ast.MethodCallExpr{
		Recv:   ident("x"),
		Method: ident("m"),
		Args:   []ast.Expr{intLit(1)},
	}
	proto, errs := Compile(chunk(block(&ast.ExprStmt{Expr: call})))
	require.Empty(t, []*CompileError(*errs))

	var sawSelf bool
	for _, instr := range proto.Code {
		if instr.Opcode() == SELF {
			sawSelf = true
		}
	}
	assert.True(t, sawSelf)
}

func TestCompileStringConcatFusesChain(t *testing.T) {
	// local s = "a" .. "b" .. "c", right-associative as the grammar requires:
	// "a" .. ("b" .. "c").
	concat := &ast.BinOpExpr{
		Left: strLit("a"), Type: token.CONCAT, Op: token.MakePos(1, 1),
		Right: &ast.BinOpExpr{Left: strLit("b"), Type: token.CONCAT, Op: token.MakePos(1, 1), Right: strLit("c")},
	}
	stmt := &ast.LocalStmt{Names: []*ast.IdentExpr{ident("s")}, Right: []ast.Expr{concat}}
	proto, errs := Compile(chunk(block(stmt)))
	require.Empty(t, []*CompileError(*errs))

	var concatCount int
	for _, instr := range proto.Code {
		if instr.Opcode() == CONCAT {
			concatCount++
		}
	}
	// the two nested CONCAT nodes must fuse into a single three-operand
	// instruction rather than two chained ones.
	assert.Equal(t, 1, concatCount)
}
