package layout

import "github.com/loomweb/loom/internal/formmodel"

const (
	inputHeightPx        = 22
	checkboxSizePx       = 14
	buttonPaddingPx      = 8
	defaultInputSize     = 20
	defaultTextareaCols  = 40
	defaultTextareaRows  = 4
)

// WidgetSize computes a blueprint's (width, height) in pixels (spec §4.4).
func WidgetSize(b formmodel.Blueprint) (w, h int) {
	switch b.Kind {
	case formmodel.WidgetCheckbox, formmodel.WidgetRadio:
		return checkboxSizePx, checkboxSizePx
	case formmodel.WidgetTextarea:
		return defaultTextareaCols * int(charWidthPx), defaultTextareaRows*lineHeightFor(1)
	case formmodel.WidgetSelect:
		longest := 0
		for _, o := range b.Options {
			if len(o) > longest {
				longest = len(o)
			}
		}
		if longest == 0 {
			longest = 8
		}
		return longest*int(charWidthPx) + buttonPaddingPx*2, inputHeightPx
	case formmodel.WidgetSubmit, formmodel.WidgetButton:
		textW := len(b.DefaultValue) * int(charWidthPx)
		if textW == 0 {
			textW = 6 * int(charWidthPx)
		}
		return textW + buttonPaddingPx*2, inputHeightPx
	default: // WidgetTextInput, WidgetPassword
		return defaultInputSize * int(charWidthPx), inputHeightPx
	}
}
