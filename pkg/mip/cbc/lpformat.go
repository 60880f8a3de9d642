package cbc

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/kkdraganov/LAPATOS/pkg/mip"
)

// termsPerLine keeps LP rows short; CBC accepts continuation lines
const termsPerLine = 8

// WriteLP writes the model in CPLEX LP format
func WriteLP(w io.Writer, model *mip.Model) error {
	bw := bufio.NewWriter(w)
	vars := model.Vars()

	fmt.Fprintf(bw, "\\* %s *\\\n", model.Name)
	fmt.Fprintln(bw, model.Sense().String())

	objective := model.Objective()
	if len(objective) == 0 && len(vars) > 0 {
		objective = []mip.Term{{Var: vars[0].ID, Coef: 0}}
	}
	bw.WriteString("OBJ:")
	writeTerms(bw, vars, objective)
	bw.WriteString("\n")

	fmt.Fprintln(bw, "Subject To")
	for _, c := range model.Constraints() {
		fmt.Fprintf(bw, "%s:", c.Name)
		writeTerms(bw, vars, c.Terms)
		fmt.Fprintf(bw, " %s %s\n", c.Op, formatCoef(c.RHS))
	}

	if len(vars) > 0 {
		fmt.Fprintln(bw, "Binaries")
		for _, v := range vars {
			fmt.Fprintln(bw, v.Name)
		}
	}
	fmt.Fprintln(bw, "End")

	return bw.Flush()
}

func writeTerms(bw *bufio.Writer, vars []mip.Var, terms []mip.Term) {
	for i, t := range terms {
		if i > 0 && i%termsPerLine == 0 {
			bw.WriteString("\n")
		}
		sign := "+"
		coef := t.Coef
		if coef < 0 {
			sign = "-"
			coef = -coef
		}
		fmt.Fprintf(bw, " %s %s %s", sign, formatCoef(coef), vars[t.Var].Name)
	}
}

func formatCoef(v float64) string {
	return strconv.FormatFloat(v, 'g', 12, 64)
}
