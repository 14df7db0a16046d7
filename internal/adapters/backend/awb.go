package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/athebyme/emag-console/internal/domain/models"
	"github.com/athebyme/emag-console/internal/utils"
	pkgmodels "github.com/athebyme/emag-console/pkg/models"
	pkgutils "github.com/athebyme/emag-console/pkg/utils"
)

// OrdersQuery - параметры выборки заказов
type OrdersQuery struct {
	AccountType pkgmodels.AccountType
	Status      int
	Page        *pkgutils.Pagination
}

// GenerateAWBRequest - тело запроса генерации одной накладной
type GenerateAWBRequest struct {
	AccountType      pkgmodels.AccountType `json:"account_type"`
	CourierAccountID int64                 `json:"courier_account_id"`
	Packages         []models.AWBPackage   `json:"packages,omitempty"`
}

// BulkAWBRequest - тело запроса массовой генерации накладных
type BulkAWBRequest struct {
	AccountType      pkgmodels.AccountType `json:"account_type"`
	CourierAccountID int64                 `json:"courier_account_id"`
	Orders           []int64               `json:"orders"`
}

// Couriers возвращает курьерские аккаунты профиля
func (c *Client) Couriers(ctx context.Context, account pkgmodels.AccountType) ([]models.CourierAccount, error) {
	var data struct {
		Couriers []models.CourierAccount `json:"couriers"`
	}

	err := c.do(ctx, request{
		endpoint: "awb_couriers",
		method:   http.MethodGet,
		path:     "/emag/phase2/awb/couriers",
		query:    url.Values{"account_type": {account.String()}},
	}, &data)
	if err != nil {
		return nil, err
	}

	return data.Couriers, nil
}

// Orders возвращает страницу заказов с указанным статусом
func (c *Client) Orders(ctx context.Context, q OrdersQuery) ([]models.Order, *pkgutils.Pagination, error) {
	page := q.Page
	if page == nil {
		page = pkgutils.NewPagination(1, 100, 0)
	}

	values := url.Values{}
	values.Set("account_type", q.AccountType.String())
	values.Set("status", strconv.Itoa(q.Status))
	page.Apply(values)

	var data struct {
		Orders     []models.Order       `json:"orders"`
		Pagination *pkgutils.Pagination `json:"pagination"`
	}

	err := c.do(ctx, request{
		endpoint: "orders_list",
		method:   http.MethodGet,
		path:     "/emag/orders/list",
		query:    values,
	}, &data)
	if err != nil {
		return nil, nil, err
	}

	if data.Pagination == nil {
		data.Pagination = &pkgutils.Pagination{Page: page.Page, ItemsPerPage: page.ItemsPerPage}
		data.Pagination.SetTotal(int64(len(data.Orders)))
	}

	return data.Orders, data.Pagination, nil
}

// GenerateAWB генерирует накладную для заказа и возвращает ее номер
func (c *Client) GenerateAWB(ctx context.Context, orderID int64, req GenerateAWBRequest) (string, error) {
	if orderID <= 0 {
		return "", utils.ErrInvalidOrderID
	}
	if req.CourierAccountID <= 0 {
		return "", utils.ErrInvalidCourierID
	}

	var data struct {
		AWBNumber string `json:"awb_number"`
	}

	err := c.do(ctx, request{
		endpoint: "awb_generate",
		method:   http.MethodPost,
		path:     fmt.Sprintf("/emag/phase2/awb/%d/generate", orderID),
		body:     req,
	}, &data)
	if err != nil {
		return "", err
	}

	if data.AWBNumber == "" {
		return "", &APIError{Kind: KindServer, Endpoint: "awb_generate", Status: http.StatusOK,
			Message: "бэкенд не вернул номер накладной", Err: utils.ErrEmptyAWBNumber}
	}

	return data.AWBNumber, nil
}

// BulkGenerateAWB отправляет один запрос массовой генерации
func (c *Client) BulkGenerateAWB(ctx context.Context, req BulkAWBRequest) (*models.BulkAWBResult, error) {
	if req.CourierAccountID <= 0 {
		return nil, utils.ErrInvalidCourierID
	}

	var result models.BulkAWBResult
	err := c.do(ctx, request{
		endpoint: "awb_bulk_generate",
		method:   http.MethodPost,
		path:     "/emag/phase2/awb/bulk-generate",
		body:     req,
	}, &result)
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// trackingData - ответ отслеживания, как его отдает бэкенд
type trackingData struct {
	AWBNumber   string `json:"awb_number"`
	CourierName string `json:"courier_name"`
	Status      string `json:"status"`
	Events      []struct {
		Time     time.Time `json:"time"`
		Status   string    `json:"status"`
		Location string    `json:"location"`
		Message  string    `json:"message"`
	} `json:"events"`
}

// TrackAWB возвращает снимок отслеживания накладной
func (c *Client) TrackAWB(ctx context.Context, awbNumber string, account pkgmodels.AccountType) (*models.TrackingSnapshot, error) {
	if awbNumber == "" {
		return nil, utils.ErrEmptyAWBNumber
	}

	var data trackingData
	err := c.do(ctx, request{
		endpoint: "awb_tracking",
		method:   http.MethodGet,
		path:     "/emag/phase2/awb/" + url.PathEscape(awbNumber),
		query:    url.Values{"account_type": {account.String()}},
	}, &data)
	if err != nil {
		return nil, err
	}

	snapshot := &models.TrackingSnapshot{
		AWBNumber:   data.AWBNumber,
		CourierName: data.CourierName,
		Status:      models.NormalizeTrackingStatus(data.Status),
		StatusRaw:   data.Status,
		Events:      make([]models.TrackingEvent, 0, len(data.Events)),
	}
	if snapshot.AWBNumber == "" {
		snapshot.AWBNumber = awbNumber
	}
	for _, ev := range data.Events {
		snapshot.Events = append(snapshot.Events, models.TrackingEvent{
			Time:     ev.Time,
			Status:   ev.Status,
			Location: ev.Location,
			Message:  ev.Message,
		})
	}

	return snapshot, nil
}
