package typeset

import (
	"regexp"
	"strings"
)

var (
	displayDollar  = regexp.MustCompile(`(?s)\$\$(.+?)\$\$`)
	displayBracket = regexp.MustCompile(`(?s)\\\[(.+?)\\\]`)
	inlineParen    = regexp.MustCompile(`\\\((.+?)\\\)`)
	// A lone $ followed by a non-space and closed on the same line. "$5 and $6"
	// is not maths because the closing $ must not be followed by a digit.
	inlineDollar = regexp.MustCompile(`\$([^\s$](?:[^$\n]*[^\s$])?)\$([^0-9]|$)`)

	frac  = regexp.MustCompile(`\\frac\{([^{}]*)\}\{([^{}]*)\}`)
	sqrt  = regexp.MustCompile(`\\sqrt\{([^{}]*)\}`)
	boxed = regexp.MustCompile(`\\(?:boxed|text|mathrm|mathbf)\{([^{}]*)\}`)
)

// Longer commands come before their prefixes (\infty before \in).
var symbols = strings.NewReplacer(
	`\infty`, "∞", `\int`, "∫", `\in`, "∈",
	`\alpha`, "α", `\beta`, "β", `\gamma`, "γ", `\delta`, "δ", `\epsilon`, "ε",
	`\theta`, "θ", `\lambda`, "λ", `\mu`, "μ", `\pi`, "π", `\sigma`, "σ",
	`\phi`, "φ", `\omega`, "ω", `\Delta`, "Δ", `\Sigma`, "Σ", `\Omega`, "Ω",
	`\times`, "×", `\cdot`, "·", `\div`, "÷", `\pm`, "±",
	`\leq`, "≤", `\geq`, "≥", `\neq`, "≠", `\approx`, "≈", `\equiv`, "≡",
	`\rightarrow`, "→", `\Rightarrow`, "⇒", `\leftarrow`, "←", `\to`, "→",
	`\sum`, "∑", `\prod`, "∏", `\partial`, "∂", `\nabla`, "∇",
	`\left`, "", `\right`, "", `\,`, " ", `\;`, " ", `\quad`, "  ",
)

// Maths rewrites TeX maths into code spans and code blocks so markdown
// rendering leaves it intact, replacing common commands with Unicode.
func Maths(text string) string {
	text = displayDollar.ReplaceAllStringFunc(text, func(m string) string {
		return displayBlock(displayDollar.FindStringSubmatch(m)[1])
	})
	text = displayBracket.ReplaceAllStringFunc(text, func(m string) string {
		return displayBlock(displayBracket.FindStringSubmatch(m)[1])
	})
	text = inlineParen.ReplaceAllStringFunc(text, func(m string) string {
		return inlineSpan(inlineParen.FindStringSubmatch(m)[1])
	})
	text = inlineDollar.ReplaceAllStringFunc(text, func(m string) string {
		sub := inlineDollar.FindStringSubmatch(m)
		return inlineSpan(sub[1]) + sub[2]
	})
	return text
}

// Symbols converts TeX commands in a maths expression to Unicode.
func Symbols(expr string) string {
	for i := 0; i < 4; i++ {
		next := frac.ReplaceAllString(expr, "($1)/($2)")
		next = sqrt.ReplaceAllString(next, "√($1)")
		next = boxed.ReplaceAllString(next, "$1")
		if next == expr {
			break
		}
		expr = next
	}
	return symbols.Replace(expr)
}

func inlineSpan(expr string) string {
	s := strings.TrimSpace(Symbols(expr))
	if strings.Contains(s, "`") {
		return "`` " + s + " ``"
	}
	return "`" + s + "`"
}

func displayBlock(expr string) string {
	return "\n```\n" + strings.TrimSpace(Symbols(expr)) + "\n```\n"
}
