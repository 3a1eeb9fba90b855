package app

import (
	tea "charm.land/bubbletea/v2"

	"github.com/scottviteri/r1-chat/internal/config"
	"github.com/scottviteri/r1-chat/internal/keys"
	"github.com/scottviteri/r1-chat/internal/logger"
	"github.com/scottviteri/r1-chat/internal/typeset"
	"github.com/scottviteri/r1-chat/internal/ui"
)

// handleModalKey routes modal key events to the appropriate handler based on modal state type.
func (m *Model) handleModalKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch s := m.modal.State.(type) {
	case *ui.ConfirmState:
		return m.handleConfirmModal(key, msg, s)
	case *ui.AlertState:
		return m.handleAlertModal(key)
	case *ui.SettingsState:
		return m.handleSettingsModal(key, msg, s)
	}

	modal, cmd := m.modal.Update(msg)
	m.modal = modal
	return m, cmd
}

// handleConfirmModal runs the confirmed destructive action. Declining issues
// no request.
func (m *Model) handleConfirmModal(key string, msg tea.KeyPressMsg, state *ui.ConfirmState) (tea.Model, tea.Cmd) {
	switch key {
	case keys.Escape:
		m.modal.Hide()
		return m, nil
	case keys.Enter:
		m.modal.Hide()
		if !state.Confirmed() {
			return m, nil
		}
		switch state.Action {
		case ui.ConfirmDeleteConversation:
			logger.WithConversation(state.ConversationID).Info("deleting conversation")
			return m, m.deleteConversation(state.ConversationID)
		case ui.ConfirmDeletePair:
			logger.WithConversation(state.ConversationID).Info("deleting pair", "index", state.PairIndex)
			return m, m.deletePair(state.ConversationID, state.PairIndex)
		}
		return m, nil
	}
	modal, cmd := m.modal.Update(msg)
	m.modal = modal
	return m, cmd
}

func (m *Model) handleAlertModal(key string) (tea.Model, tea.Cmd) {
	switch key {
	case keys.Escape, keys.Enter:
		m.modal.Hide()
	}
	return m, nil
}

// handleSettingsModal applies edited sampling parameters to subsequent sends
// and persists them when a config file is in use.
func (m *Model) handleSettingsModal(key string, msg tea.KeyPressMsg, state *ui.SettingsState) (tea.Model, tea.Cmd) {
	switch key {
	case keys.Escape:
		m.modal.Hide()
		return m, nil
	case keys.Enter:
		values, err := state.Values()
		if err != nil {
			m.modal.SetError(err.Error())
			return m, nil
		}
		sampling := config.Sampling{Temperature: values.Temperature, TopP: values.TopP, MaxTokens: values.MaxTokens}
		if err := m.cfg.SetSampling(sampling); err != nil {
			m.modal.SetError(err.Error())
			return m, nil
		}
		m.applyUISettings(config.UI{Markdown: values.Markdown, Notifications: values.Notifications})
		m.header.SetSampling(sampling.Temperature, sampling.TopP, sampling.MaxTokens)
		m.modal.Hide()

		if m.cfg.FilePath() != "" {
			if err := m.cfg.Save(); err != nil {
				logger.Error("App: Failed to save settings: %v", err)
				return m, m.ShowFlash("Settings applied but not saved", ui.FlashWarning)
			}
		}
		logger.Log("App: Settings updated: temperature=%v topP=%v maxTokens=%d", sampling.Temperature, sampling.TopP, sampling.MaxTokens)
		return m, m.ShowFlashSuccess("Settings saved")
	}
	modal, cmd := m.modal.Update(msg)
	m.modal = modal
	return m, cmd
}

// applyUISettings stores the display options and re-typesets every surface when
// markdown rendering was toggled.
func (m *Model) applyUISettings(u config.UI) {
	prev := m.cfg.GetUI()
	m.cfg.SetUI(u)
	if prev.Markdown == u.Markdown {
		return
	}
	if u.Markdown {
		m.surfaces.SetTypesetter(typeset.New(""))
	} else {
		m.surfaces.SetTypesetter(nil)
	}
}
