package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emberlang/ember/internal/codegen"
	"github.com/emberlang/ember/internal/funcval"
	"github.com/emberlang/ember/internal/gosvalue"
	"github.com/emberlang/ember/internal/opcode"
)

func newDisasmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm <file>",
		Short: "Print the compiled instruction listing without executing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return disasmFile(args[0])
		},
	}
}

func disasmFile(filename string) error {
	program, err := compile(filename)
	if err != nil {
		return err
	}

	printFunc(program, "__init__", program.InitFunc)
	for _, fn := range program.Funcs {
		printFunc(program, fn.Name, fn)
	}
	return nil
}

func printFunc(program *codegen.Program, name string, fn *funcval.FunctionVal) {
	if fn == nil {
		return
	}
	fmt.Printf("func %s  ; params=%d results=%d variadic=%v locals=%d upvalues=%d consts=%d\n",
		name, fn.ParamCount, fn.ResultCount, fn.Variadic, len(fn.Locals()), len(fn.Upvalues()), len(fn.Consts()))
	for pc, inst := range fn.Code() {
		fmt.Printf("  %4d  %s\n", pc, disasmInst(inst))
	}
	fmt.Println()
}

func disasmInst(inst opcode.Instruction) string {
	s := inst.Op.String()
	if t := typeTag(inst.Type0); t != "" {
		s += " t0=" + t
	}
	if t := typeTag(inst.Type1); t != "" {
		s += " t1=" + t
	}
	if t := typeTag(inst.Type2); t != "" {
		s += " t2=" + t
	}
	if inst.Imm0 != 0 {
		s += fmt.Sprintf(" imm0=%d", inst.Imm0)
	}
	if inst.Imm1 != 0 {
		s += fmt.Sprintf(" imm1=%d", inst.Imm1)
	}
	return s
}

func typeTag(t gosvalue.ValueType) string {
	if t == opcode.AbsentType {
		return ""
	}
	return t.String()
}
