package controllers

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"hoa-vote-service/internal/domain/excel"
	"hoa-vote-service/internal/domain/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// contentDisposition 同时给出 ASCII 回退名与 RFC 5987 编码的中文文件名
func contentDisposition(filename, fallback string) string {
	encoded := strings.ReplaceAll(url.QueryEscape(filename), "+", "%20")
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, fallback, encoded)
}

// sendWorkbook 把工作簿作为附件写回并关闭
func sendWorkbook(ctx *gin.Context, f *excelize.File, filename, fallback string) error {
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return err
	}
	ctx.Header("Content-Disposition", contentDisposition(filename, fallback))
	ctx.Data(http.StatusOK, xlsxContentType, buf.Bytes())
	return nil
}

// readUploadRows 读取上传表格的全部行
func readUploadRows(fh *multipart.FileHeader) ([][]string, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	rows, err := excel.ReadRows(file, fh.Filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", services.ErrImportFile, err)
	}
	return rows, nil
}
