package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rivo/tview"

	"github.com/Devcode940/kenyawatch/internal/civic"
)

var trendChoices = []string{"none", string(civic.TrendUp), string(civic.TrendDown), string(civic.TrendStable)}

// showForm displays form over the current page until closeForm is called.
func (ui *UI) showForm(title string, form *tview.Form) {
	form.SetBorder(true)
	form.SetTitle(" " + title + " ")
	form.SetTitleAlign(tview.AlignLeft)
	form.SetBackgroundColor(ui.theme.Surface)
	form.SetBorderColor(ui.theme.FocusBorder)
	form.SetFieldBackgroundColor(ui.theme.SelectionBg)
	form.SetFieldTextColor(ui.theme.TextPrimary)
	form.SetLabelColor(ui.theme.TextMuted)
	form.SetButtonBackgroundColor(ui.theme.SelectionBg)
	form.SetButtonTextColor(ui.theme.SelectionFg)
	form.SetCancelFunc(ui.closeForm)

	centered := tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(form, 18, 0, true).
			AddItem(nil, 0, 1, false), 76, 0, true).
		AddItem(nil, 0, 1, false)
	ui.pages.AddPage(pageForm, centered, true, true)
	ui.app.SetFocus(form)
}

func (ui *UI) closeForm() {
	ui.pages.RemovePage(pageForm)
	if ui.frontPage() == pageDetail {
		ui.app.SetFocus(ui.detail)
		return
	}
	ui.app.SetFocus(ui.currentView().table)
}

func (ui *UI) showReviewForm() {
	id := ui.detailID
	form := tview.NewForm()
	form.AddInputField("Your name", ui.user, 40, nil, nil)
	form.AddDropDown("Rating", []string{"1", "2", "3", "4", "5"}, 4, nil)
	form.AddTextArea("Comment", "", 60, 6, civic.MaxCommentLength, nil)
	form.AddButton("Submit", func() {
		name := form.GetFormItemByLabel("Your name").(*tview.InputField).GetText()
		_, option := form.GetFormItemByLabel("Rating").(*tview.DropDown).GetCurrentOption()
		comment := form.GetFormItemByLabel("Comment").(*tview.TextArea).GetText()
		rating, _ := strconv.Atoi(option)
		ui.submitReview(id, name, rating, comment)
	})
	form.AddButton("Cancel", ui.closeForm)
	ui.showForm("Review "+ui.detailName, form)
}

// submitReview stores a review. Validation failures keep the form open
// and show the message in the status bar.
func (ui *UI) submitReview(id, name string, rating int, comment string) {
	review := civic.Review{
		RepresentativeID: id,
		Rating:           rating,
		Comment:          comment,
		UserName:         strings.TrimSpace(name),
	}
	if err := civic.ValidateReview(review); err != nil {
		ui.setStatusDirect("[%s]%s[-]", ui.theme.TagError, tview.Escape(userMessage(err)))
		return
	}
	ui.closeForm()
	ui.runTask("Submitting review", func(ctx context.Context) (string, error) {
		if _, err := ui.flows.WithActor(review.UserName).AddReview(ctx, review); err != nil {
			return "", err
		}
		return "Review submitted. Thank you!", nil
	}, ui.refreshDetail(id))
}

func (ui *UI) showMetricForm() {
	id := ui.detailID
	form := tview.NewForm()
	form.AddInputField("Metric", "", 40, nil, nil)
	form.AddInputField("Value", "", 20, nil, nil)
	form.AddInputField("Unit", "", 20, nil, nil)
	form.AddInputField("Description", "", 60, nil, nil)
	form.AddDropDown("Trend", trendChoices, 0, nil)
	form.AddButton("Submit", func() {
		text := func(label string) string {
			return form.GetFormItemByLabel(label).(*tview.InputField).GetText()
		}
		_, trend := form.GetFormItemByLabel("Trend").(*tview.DropDown).GetCurrentOption()
		ui.submitMetric(civic.PerformanceMetric{
			RepresentativeID: id,
			Name:             strings.TrimSpace(text("Metric")),
			Value:            civic.ParseMetricValue(text("Value")),
			Unit:             strings.TrimSpace(text("Unit")),
			Description:      strings.TrimSpace(text("Description")),
			Trend:            trendFromChoice(trend),
		})
	})
	form.AddButton("Cancel", ui.closeForm)
	ui.showForm("Add metric for "+ui.detailName, form)
}

func trendFromChoice(s string) civic.Trend {
	if s == "none" {
		return ""
	}
	return civic.Trend(s)
}

// submitMetric stores a metric, keeping the form open on validation errors.
func (ui *UI) submitMetric(m civic.PerformanceMetric) {
	if err := civic.ValidatePerformanceMetric(m); err != nil {
		ui.setStatusDirect("[%s]%s[-]", ui.theme.TagError, tview.Escape(userMessage(err)))
		return
	}
	ui.closeForm()
	ui.runTask("Adding metric", func(ctx context.Context) (string, error) {
		if _, err := ui.flows.AddPerformanceMetric(ctx, m); err != nil {
			return "", err
		}
		return fmt.Sprintf("Metric %q added.", m.Name), nil
	}, ui.refreshDetail(m.RepresentativeID))
}
