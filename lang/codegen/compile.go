package codegen

import (
	"github.com/mna/luacode/lang/ast"
	"github.com/mna/luacode/lang/token"
	"github.com/mna/luacode/lang/value"
)

// Compile lowers a parsed chunk into its root Prototype, threading a single
// ErrorList through every nested function literal compiled along the way.
// The returned Prototype is always non-nil, even when errs is non-empty, so
// callers that want a best-effort disassembly of a chunk with errors still
// get one.
func Compile(chunk *ast.Chunk) (*Prototype, *ErrorList) {
	errs := &ErrorList{}
	fs := NewFuncState(nil, chunk.Name, errs)
	fs.proto.IsVararg = true
	// the root chunk behaves like a vararg function with a single upvalue,
	// _ENV, through which every free identifier resolves (GETTABUP/SETTABUP).
	fs.proto.Upvalues = []UpvalDesc{{Name: "_ENV", InStack: false, Index: 0}}
	fs.EnterBlock(false)
	compileBlock(fs, chunk.Block)
	fs.LeaveBlockScope()
	fs.EmitABC(RETURN, 0, 1, 0)
	proto := fs.Finish(lineOf(chunk.EOF))
	return proto, errs
}

func posOf(fs *FuncState, p token.Pos) token.Position { return p.At(fs.proto.Source) }

func lineOf(p token.Pos) int {
	l, _ := p.LineCol()
	return l
}

func compileBlock(fs *FuncState, b *ast.Block) {
	for _, s := range b.Stmts {
		compileStmt(fs, s)
	}
}

func compileStmt(fs *FuncState, s ast.Stmt) {
	switch n := s.(type) {
	case *ast.LocalStmt:
		compileLocal(fs, n)
	case *ast.AssignStmt:
		compileAssign(fs, n)
	case *ast.ExprStmt:
		compileExprStmt(fs, n)
	case *ast.DoStmt:
		fs.EnterBlock(false)
		compileBlock(fs, n.Body)
		fs.LeaveBlockScope()
	case *ast.WhileStmt:
		compileWhile(fs, n)
	case *ast.RepeatStmt:
		compileRepeat(fs, n)
	case *ast.NumericForStmt:
		compileNumericFor(fs, n)
	case *ast.GenericForStmt:
		compileGenericFor(fs, n)
	case *ast.IfStmt:
		compileIf(fs, n)
	case *ast.FuncStmt:
		compileFuncStmt(fs, n)
	case *ast.ReturnStmt:
		compileReturn(fs, n)
	case *ast.BreakStmt:
		fs.SetPos(posOf(fs, n.Start))
		fs.AddBreak(fs.Jump())
	case *ast.BadStmt:
		fs.fail("bad statement")
	default:
		fs.failf("unsupported statement %T", n)
	}
}

func compileLocal(fs *FuncState, n *ast.LocalStmt) {
	nvars := len(n.Names)
	base := fs.freereg
	if len(n.Right) == 0 {
		fs.EmitNil(base, nvars)
		fs.ReserveRegs(nvars)
	} else {
		fixed, open := compileExprList(fs, n.Right)
		adjustAssign(fs, base, nvars, fixed, open)
	}
	for i, name := range n.Names {
		fs.ActivateLocal(name.Lit, base+i)
	}
}

// adjustAssign reconciles a produced value count (fixed values already
// placed at consecutive registers from base, plus an optional trailing open
// call/vararg) against the nwanted values an assignment or local
// declaration needs: padding with nil, truncating extras, or expanding the
// open tail to exactly the deficit.
func adjustAssign(fs *FuncState, base, nwanted, fixed int, open *ExpDesc) {
	switch {
	case open != nil:
		want := nwanted - fixed
		if want < 0 {
			want = 0
		}
		fs.SetReturns(open, want)
		// the open call or vararg already occupies register base+fixed
		if want > 1 {
			fs.ReserveRegs(want - 1)
		}
		if fixed+1 > nwanted {
			fs.freereg = base + nwanted
		}
	case fixed < nwanted:
		fs.EmitNil(base+fixed, nwanted-fixed)
		fs.ReserveRegs(nwanted - fixed)
	case fixed > nwanted:
		fs.freereg = base + nwanted
	}
}

func compileAssign(fs *FuncState, n *ast.AssignStmt) {
	targets := make([]*ExpDesc, len(n.Left))
	for i, l := range n.Left {
		targets[i] = compileAssignTarget(fs, l)
	}
	nvars := len(targets)
	base := fs.freereg
	fixed, open := compileExprList(fs, n.Right)
	adjustAssign(fs, base, nvars, fixed, open)
	for i := nvars - 1; i >= 0; i-- {
		val := &ExpDesc{Kind: NONRELOC, Info: base + i, T: NoJump, F: NoJump}
		fs.StoreVar(targets[i], val)
	}
}

func compileAssignTarget(fs *FuncState, e ast.Expr) *ExpDesc {
	switch n := e.(type) {
	case *ast.IdentExpr:
		return resolveName(fs, n.Lit, posOf(fs, n.Start))
	case *ast.DotExpr:
		obj := compileExpr(fs, n.Left)
		key := constKey(fs, n.Right.Lit)
		return fs.IndexField(obj, key)
	case *ast.IndexExpr:
		obj := compileExpr(fs, n.Prefix)
		key := compileExpr(fs, n.Index)
		return fs.IndexField(obj, key)
	default:
		fs.fail("invalid assignment target")
		return &ExpDesc{Kind: VOID, T: NoJump, F: NoJump}
	}
}

func compileExprStmt(fs *FuncState, n *ast.ExprStmt) {
	v := compileExpr(fs, n.Expr)
	if v.Kind == CALL {
		fs.SetReturns(v, 0)
	}
}

func compileWhile(fs *FuncState, n *ast.WhileStmt) {
	whileInit := fs.GetLabel()
	cond := compileExpr(fs, n.Cond)
	fs.GoIfTrue(cond)
	condExit := cond.F
	fs.EnterBlock(true)
	compileBlock(fs, n.Body)
	fs.PatchList(fs.Jump(), whileInit)
	fs.LeaveBlockScope()
	fs.PatchToHere(condExit)
}

func compileRepeat(fs *FuncState, n *ast.RepeatStmt) {
	repeatInit := fs.GetLabel()
	fs.EnterBlock(true)
	compileBlock(fs, n.Body)
	cond := compileExpr(fs, n.Cond)
	fs.GoIfTrue(cond)
	fs.LeaveBlockScope()
	fs.PatchList(cond.F, repeatInit)
}

func compileNumericFor(fs *FuncState, n *ast.NumericForStmt) {
	base := fs.freereg
	start := compileExpr(fs, n.Start)
	fs.Exp2NextReg(start)
	stop := compileExpr(fs, n.Stop)
	fs.Exp2NextReg(stop)
	var step *ExpDesc
	if n.Step != nil {
		step = compileExpr(fs, n.Step)
	} else {
		step = &ExpDesc{Kind: KINT, Ival: 1, T: NoJump, F: NoJump}
	}
	fs.Exp2NextReg(step)

	fs.SetPos(posOf(fs, n.For))
	prepPC := fs.EmitAsBx(FORPREP, base, NoJump)
	fs.EnterBlock(true)
	fs.NewLocal(n.Name.Lit)
	compileBlock(fs, n.Body)
	fs.LeaveBlockScope()
	loopPC := fs.EmitAsBx(FORLOOP, base, NoJump)
	fs.fixJump(prepPC, loopPC)
	fs.fixJump(loopPC, prepPC+1)
}

func compileGenericFor(fs *FuncState, n *ast.GenericForStmt) {
	base := fs.freereg
	fixed, open := compileExprList(fs, n.Exprs)
	adjustAssign(fs, base, 3, fixed, open)

	prepJump := fs.Jump()
	fs.EnterBlock(true)
	for _, name := range n.Names {
		fs.NewLocal(name.Lit)
	}
	bodyStart := fs.GetLabel()
	compileBlock(fs, n.Body)
	fs.LeaveBlockScope()

	fs.PatchToHere(prepJump)
	fs.SetPos(posOf(fs, n.For))
	fs.EmitABC(TFORCALL, base, 0, len(n.Names))
	loopPC := fs.EmitAsBx(TFORLOOP, base+2, NoJump)
	fs.fixJump(loopPC, bodyStart)
}

func compileIf(fs *FuncState, n *ast.IfStmt) {
	cond := compileExpr(fs, n.Cond)
	fs.GoIfTrue(cond)
	fs.EnterBlock(false)
	compileBlock(fs, n.True)
	fs.LeaveBlockScope()
	if n.False != nil {
		escape := fs.Jump()
		fs.PatchToHere(cond.F)
		fs.EnterBlock(false)
		compileBlock(fs, n.False)
		fs.LeaveBlockScope()
		fs.PatchToHere(escape)
	} else {
		fs.PatchToHere(cond.F)
	}
}

func compileFuncStmt(fs *FuncState, n *ast.FuncStmt) {
	params := n.Params
	if n.IsMethod {
		self := &ast.IdentExpr{Start: n.Fn, Lit: "self"}
		params = append([]*ast.IdentExpr{self}, params...)
	}
	fnExpr := &ast.FuncExpr{
		Fn: n.Fn, Lparen: n.Lparen, Params: params, IsVararg: n.IsVararg,
		Rparen: n.Rparen, Body: n.Body, End: n.End,
	}
	val := compileFuncExpr(fs, fnExpr)
	target := compileAssignTarget(fs, n.Name)
	fs.StoreVar(target, val)
}

func compileFuncExpr(fs *FuncState, n *ast.FuncExpr) *ExpDesc {
	child := NewFuncState(fs, fs.proto.Source, fs.errs)
	child.SetPos(posOf(child, n.Fn))
	child.proto.LineDefined = lineOf(n.Fn)
	child.proto.NumParams = len(n.Params)
	child.proto.IsVararg = n.IsVararg
	child.EnterBlock(false)
	for _, p := range n.Params {
		child.NewLocal(p.Lit)
	}
	compileBlock(child, n.Body)
	child.LeaveBlockScope()
	child.EmitABC(RETURN, 0, 1, 0)
	proto := child.Finish(lineOf(n.End))

	idx := len(fs.proto.Protos)
	fs.proto.Protos = append(fs.proto.Protos, proto)
	fs.SetPos(posOf(fs, n.Fn))
	pc := fs.EmitABx(CLOSURE, 0, idx)
	return &ExpDesc{Kind: RELOCABLE, Info: pc, T: NoJump, F: NoJump}
}

func compileReturn(fs *FuncState, n *ast.ReturnStmt) {
	fs.SetPos(posOf(fs, n.Return))
	if len(n.Exprs) == 0 {
		fs.EmitABC(RETURN, 0, 1, 0)
		return
	}
	base := fs.freereg
	fixed, open := compileExprList(fs, n.Exprs)
	b := fixed + 1
	if open != nil {
		fs.SetReturns(open, MultRet)
		b = 0
	}
	fs.EmitABC(RETURN, base, b, 0)
}

// compileExprList compiles exprs left to right, forcing every value but the
// last into consecutive registers starting at the current freereg. If the
// last expression is a call or vararg expansion, it is left undischarged
// (open) rather than forced, so the caller can decide how many results it
// wants via SetReturns; fixed is the count of values already forced (not
// including the open tail).
func compileExprList(fs *FuncState, exprs []ast.Expr) (fixed int, open *ExpDesc) {
	if len(exprs) == 0 {
		return 0, nil
	}
	for i, e := range exprs {
		v := compileExpr(fs, e)
		if i == len(exprs)-1 && (v.Kind == CALL || v.Kind == VARARG) {
			return i, v
		}
		fs.Exp2NextReg(v)
	}
	return len(exprs), nil
}

func constKey(fs *FuncState, s string) *ExpDesc {
	idx := fs.consts.addK(value.NewString(s))
	return &ExpDesc{Kind: K, Info: int(idx), T: NoJump, F: NoJump}
}

// resolveName looks up name as a local, then an upvalue, then falls back to
// an indexed access into the _ENV upvalue (a free identifier is sugar for
// _ENV.name), mirroring how a Lua 5.2+ front end resolves globals without a
// dedicated GETGLOBAL/SETGLOBAL opcode pair.
func resolveName(fs *FuncState, name string, pos token.Position) *ExpDesc {
	if reg, ok := fs.ResolveLocal(name); ok {
		return &ExpDesc{Kind: LOCAL, Info: reg, T: NoJump, F: NoJump}
	}
	if idx, ok := fs.ResolveUpval(name); ok {
		return &ExpDesc{Kind: UPVAL, Info: idx, T: NoJump, F: NoJump}
	}
	envIdx, ok := fs.ResolveUpval("_ENV")
	if !ok {
		fs.errs.Add(pos, "_ENV is not accessible here")
		return &ExpDesc{Kind: VOID, T: NoJump, F: NoJump}
	}
	keyIdx := int(fs.consts.addK(value.NewString(name)))
	return &ExpDesc{
		Kind: INDEXED,
		Ind: IndexedDesc{
			TableIsUp:  true,
			TableReg:   envIdx,
			KeyRK:      rkAsK(keyIdx),
			KeyIsConst: true,
		},
		T: NoJump, F: NoJump,
	}
}

func compileExpr(fs *FuncState, e ast.Expr) *ExpDesc {
	switch n := e.(type) {
	case *ast.LiteralExpr:
		return compileLiteral(fs, n)
	case *ast.IdentExpr:
		return resolveName(fs, n.Lit, posOf(fs, n.Start))
	case *ast.VarargExpr:
		fs.SetPos(posOf(fs, n.Start))
		pc := fs.EmitABC(VARARG, 0, 2, 0)
		return &ExpDesc{Kind: VARARG, Info: pc, T: NoJump, F: NoJump}
	case *ast.UnaryOpExpr:
		operand := compileExpr(fs, n.Right)
		pos := posOf(fs, n.Op)
		if n.Type == token.NOT {
			fs.SetPos(pos)
			fs.CodeNot(operand)
			return operand
		}
		return fs.UnOp(n.Type, operand, pos)
	case *ast.BinOpExpr:
		return compileBinOp(fs, n)
	case *ast.ParenExpr:
		inner := compileExpr(fs, n.Expr)
		if inner.Kind == CALL || inner.Kind == VARARG {
			fs.SetOneRet(inner)
		}
		return inner
	case *ast.DotExpr:
		obj := compileExpr(fs, n.Left)
		key := constKey(fs, n.Right.Lit)
		return fs.IndexField(obj, key)
	case *ast.IndexExpr:
		obj := compileExpr(fs, n.Prefix)
		key := compileExpr(fs, n.Index)
		return fs.IndexField(obj, key)
	case *ast.CallExpr:
		return compileCall(fs, n)
	case *ast.MethodCallExpr:
		return compileMethodCall(fs, n)
	case *ast.TableExpr:
		return compileTable(fs, n)
	case *ast.FuncExpr:
		return compileFuncExpr(fs, n)
	case *ast.BadExpr:
		fs.fail("bad expression")
		return &ExpDesc{Kind: VOID, T: NoJump, F: NoJump}
	default:
		fs.failf("unsupported expression %T", n)
		return &ExpDesc{Kind: VOID, T: NoJump, F: NoJump}
	}
}

func compileLiteral(fs *FuncState, n *ast.LiteralExpr) *ExpDesc {
	switch n.Type {
	case token.NIL:
		return &ExpDesc{Kind: NILX, T: NoJump, F: NoJump}
	case token.TRUE:
		return &ExpDesc{Kind: TRUE, T: NoJump, F: NoJump}
	case token.FALSE:
		return &ExpDesc{Kind: FALSE, T: NoJump, F: NoJump}
	case token.INT:
		return &ExpDesc{Kind: KINT, Ival: n.Int, T: NoJump, F: NoJump}
	case token.FLOAT:
		return &ExpDesc{Kind: KFLT, Nval: n.Float, T: NoJump, F: NoJump}
	case token.STRING:
		return constKey(fs, n.Str)
	default:
		fs.failf("unsupported literal %s", n.Type)
		return &ExpDesc{Kind: VOID, T: NoJump, F: NoJump}
	}
}

func compileBinOp(fs *FuncState, n *ast.BinOpExpr) *ExpDesc {
	pos := posOf(fs, n.Op)
	switch n.Type {
	case token.AND:
		left := compileExpr(fs, n.Left)
		fs.GoIfTrue(left)
		right := compileExpr(fs, n.Right)
		fs.AndPostfix(left, right)
		return left
	case token.OR:
		left := compileExpr(fs, n.Left)
		fs.GoIfFalse(left)
		right := compileExpr(fs, n.Right)
		fs.OrPostfix(left, right)
		return left
	case token.CONCAT:
		left := compileExpr(fs, n.Left)
		fs.Exp2NextReg(left)
		right := compileExpr(fs, n.Right)
		return fs.CodeConcat(left, right, pos)
	case token.EQL, token.NEQ, token.LT, token.LE, token.GT, token.GE:
		left := compileExpr(fs, n.Left)
		right := compileExpr(fs, n.Right)
		return fs.Comp(n.Type, left, right, pos)
	default:
		left := compileExpr(fs, n.Left)
		right := compileExpr(fs, n.Right)
		return fs.BinOp(n.Type, left, right, pos)
	}
}

func compileCall(fs *FuncState, n *ast.CallExpr) *ExpDesc {
	fnExpr := compileExpr(fs, n.Fn)
	fs.Exp2NextReg(fnExpr)
	base := fnExpr.Info
	fixed, open := compileExprList(fs, n.Args)
	var b int
	if open != nil {
		fs.SetReturns(open, MultRet)
		b = 0
	} else {
		b = fixed + 1
	}
	fs.SetPos(posOf(fs, n.Lparen))
	pc := fs.EmitABC(CALL, base, b, 2)
	fs.freereg = base + 1
	return &ExpDesc{Kind: CALL, Info: pc, T: NoJump, F: NoJump}
}

func compileMethodCall(fs *FuncState, n *ast.MethodCallExpr) *ExpDesc {
	recv := compileExpr(fs, n.Recv)
	key := constKey(fs, n.Method.Lit)
	fs.Self(recv, key)
	base := recv.Info
	fixed, open := compileExprList(fs, n.Args)
	var b int
	if open != nil {
		fs.SetReturns(open, MultRet)
		b = 0
	} else {
		b = fixed + 2 // +1 for the implicit self argument, +1 for the CALL encoding
	}
	fs.SetPos(posOf(fs, n.Lparen))
	pc := fs.EmitABC(CALL, base, b, 2)
	fs.freereg = base + 1
	return &ExpDesc{Kind: CALL, Info: pc, T: NoJump, F: NoJump}
}

func compileTable(fs *FuncState, n *ast.TableExpr) *ExpDesc {
	t := fs.NewTable()
	fs.Exp2NextReg(t)
	base := t.Info

	pending, total := 0, 0
	flush := func() {
		if pending == 0 {
			return
		}
		fs.SetList(base, total, pending)
		pending = 0
	}
	for i, fl := range n.Fields {
		if fl.Key == nil {
			v := compileExpr(fs, fl.Value)
			last := i == len(n.Fields)-1
			if last && (v.Kind == CALL || v.Kind == VARARG) {
				fs.SetReturns(v, MultRet)
				fs.SetList(base, total+1, MultRet)
				pending = 0
				continue
			}
			fs.Exp2NextReg(v)
			pending++
			total++
			if pending == fieldsPerFlush {
				flush()
			}
			continue
		}
		var key *ExpDesc
		if id, ok := fl.Key.(*ast.IdentExpr); ok {
			key = constKey(fs, id.Lit)
		} else {
			key = compileExpr(fs, fl.Key)
		}
		val := compileExpr(fs, fl.Value)
		keyRK := fs.Exp2RK(key)
		valRK := fs.Exp2RK(val)
		fs.freeExpRegs(key, val)
		fs.EmitABC(SETTABLE, base, keyRK, valRK)
	}
	flush()
	return t
}
