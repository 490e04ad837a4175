package main

import (
	"github.com/emberlang/ember/internal/diag"
	"github.com/emberlang/ember/internal/emberrors"
)

// runtimeDiagnostic maps a VM-returned error onto the Stage/Severity/Code
// taxonomy §7 assigns each emberrors type, for uniform CLI reporting whether
// the failure came from parsing, resolution, codegen, or execution.
func runtimeDiagnostic(err error) diag.Diagnostic {
	d := diag.Diagnostic{
		Stage:    diag.StageRuntime,
		Severity: diag.SeverityError,
		Code:     diag.CodeRuntimePanic,
		Message:  err.Error(),
	}
	switch err.(type) {
	case *emberrors.InternalError:
		d.Code = diag.CodeCodegenInternal
		d.Stage = diag.StageCodegen
	case *emberrors.TypeError, *emberrors.RuntimeError:
		d.Code = diag.CodeRuntimePanic
	}
	return d
}
