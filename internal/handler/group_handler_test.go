package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/horario-api/internal/models"
	"github.com/noah-isme/horario-api/internal/service"
)

func TestGroupHandlerListAndGet(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/groups", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list struct {
		Data []models.Group `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 2)
	assert.Equal(t, "1º A", list.Data[0].Name)

	w = f.do(t, http.MethodGet, "/groups/"+f.groupA.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/groups/group-missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGroupHandlerSchedule(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPut, fmt.Sprintf("/groups/%s/schedule/Lunes/0", f.groupA.ID), service.SetAssignmentRequest{SubjectID: f.lengua.ID})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/groups/"+f.groupA.ID+"/schedule", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.Schedule `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	cell, ok := envelope.Data.Get(models.Monday, 0)
	require.True(t, ok)
	assert.Equal(t, "Lengua", cell.Name)
}

func TestGroupHandlerCreate(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/groups", service.CreateGroupRequest{Name: "2º C"})
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope struct {
		Data models.Group `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Contains(t, envelope.Data.ID, "group-")
	assert.Equal(t, models.ShiftMorning, envelope.Data.Shift)

	w = f.do(t, http.MethodPost, "/groups", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGroupHandlerDelete(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodDelete, "/groups/"+f.groupB.ID, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodGet, fmt.Sprintf("/groups/%s", f.groupB.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
