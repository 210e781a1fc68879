package controllers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentDisposition(t *testing.T) {
	got := contentDisposition("阳光花园_第一轮 投票明细.xlsx", "votes_1.xlsx")
	assert.Equal(t,
		`attachment; filename="votes_1.xlsx"; filename*=UTF-8''%E9%98%B3%E5%85%89%E8%8A%B1%E5%9B%AD_%E7%AC%AC%E4%B8%80%E8%BD%AE%20%E6%8A%95%E7%A5%A8%E6%98%8E%E7%BB%86.xlsx`,
		got)
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("")
	assert.NoError(t, err)
	assert.Nil(t, d)

	d, err = parseDate("2025-03-08")
	if assert.NoError(t, err) {
		assert.Equal(t, "2025-03-08", d.Format("2006-01-02"))
	}

	_, err = parseDate("03/08/2025")
	assert.Error(t, err)
}
