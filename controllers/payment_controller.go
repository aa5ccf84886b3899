package controller

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/charge"
	"github.com/stripe/stripe-go/v76/customer"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"planvite/config"
	"planvite/models"
	"planvite/utils"
)

func InitStripe() {
	stripe.Key = config.AppConfig.StripeSecretKey
}

// GetPlans lists the subscription tiers with display pricing
func GetPlans(c *fiber.Ctx) error {
	var plans []models.Plan
	if err := config.DB.Order("price_cents ASC").Find(&plans).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch plans",
		})
	}

	for i := range plans {
		plans[i].DisplayPrice = "$" + strconv.Itoa(plans[i].PriceCents/100)
	}

	return c.JSON(utils.SuccessResponse(plans))
}

// CreatePaymentIntent creates a Stripe Payment Intent for a plan upgrade
func CreatePaymentIntent(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	orgID := c.Locals("orgID").(uint)

	var req struct {
		PlanID uint `json:"plan_id" validate:"required"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.PlanID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Plan ID is required",
		})
	}

	// Get the plan from database
	var plan models.Plan
	if err := config.DB.First(&plan, req.PlanID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Plan not found",
		})
	}

	var org models.Organization
	if err := config.DB.First(&org, orgID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Organization not found",
		})
	}

	// Create or get Stripe customer for the organization
	customerID, err := getOrCreateStripeCustomer(&org, user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process payment",
		})
	}

	// Create Payment Intent
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(plan.PriceCents)),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
		Customer: stripe.String(customerID),
		Metadata: map[string]string{
			"organization_id": strconv.Itoa(int(org.ID)),
			"plan_id":         strconv.Itoa(int(plan.ID)),
		},
		Description: stripe.String("Upgrade to " + plan.Name + " plan"),
	}
	params.SetupFutureUsage = stripe.String("off_session")

	pi, err := paymentintent.New(params)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process payment",
		})
	}

	// Create transaction record
	transaction := models.SubscriptionTransaction{
		OrganizationID:        org.ID,
		PlanID:                &plan.ID,
		Amount:                plan.PriceCents,
		Currency:              "usd",
		PaymentStatus:         "pending",
		StripePaymentIntentID: pi.ID,
	}

	if err := config.DB.Create(&transaction).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process transaction",
		})
	}

	return c.JSON(fiber.Map{
		"clientSecret":   pi.ClientSecret,
		"transaction_id": transaction.ID,
		"amount":         plan.PriceCents,
		"currency":       "usd",
	})
}

// HandlePaymentWebhook verifies and dispatches Stripe webhook events
func HandlePaymentWebhook(c *fiber.Ctx) error {
	event, err := utils.ConstructStripeEvent(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var paymentIntent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &paymentIntent); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Error parsing payment intent",
			})
		}
		return handlePaymentIntentSucceeded(c, &paymentIntent)

	case "payment_intent.payment_failed":
		var paymentIntent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &paymentIntent); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Error parsing payment intent",
			})
		}
		return handlePaymentIntentFailed(c, &paymentIntent)

	default:
		return c.SendStatus(fiber.StatusOK)
	}
}

// handlePaymentIntentSucceeded upgrades the organization to the paid plan
func handlePaymentIntentSucceeded(c *fiber.Ctx, pi *stripe.PaymentIntent) error {
	var transaction models.SubscriptionTransaction
	if err := config.DB.Where("stripe_payment_intent_id = ?", pi.ID).First(&transaction).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Transaction not found",
		})
	}

	transaction.PaymentStatus = "completed"
	if pi.LatestCharge != nil {
		ch, err := charge.Get(pi.LatestCharge.ID, nil)
		if err == nil {
			transaction.ReceiptURL = ch.ReceiptURL
		}
	}

	if err := config.DB.Save(&transaction).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update transaction",
		})
	}

	if transaction.PlanID == nil {
		return c.SendStatus(fiber.StatusOK)
	}

	var plan models.Plan
	if err := config.DB.First(&plan, *transaction.PlanID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Plan not found",
		})
	}

	// The new tier takes effect immediately; the next import run sees the
	// bigger guest limit
	err := config.DB.Model(&models.Organization{}).
		Where("id = ?", transaction.OrganizationID).
		Updates(map[string]interface{}{
			"plan_id":   plan.ID,
			"plan_name": plan.Name,
		}).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to upgrade organization",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

// handlePaymentIntentFailed marks the transaction failed
func handlePaymentIntentFailed(c *fiber.Ctx, pi *stripe.PaymentIntent) error {
	var transaction models.SubscriptionTransaction
	if err := config.DB.Where("stripe_payment_intent_id = ?", pi.ID).First(&transaction).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Transaction not found",
		})
	}

	transaction.PaymentStatus = "failed"
	if err := config.DB.Save(&transaction).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update transaction",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

// getOrCreateStripeCustomer gets or creates a Stripe customer for the org
func getOrCreateStripeCustomer(org *models.Organization, user *models.User) (string, error) {
	if org.StripeCustomerID != nil {
		return *org.StripeCustomerID, nil
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(user.Email),
		Name:  stripe.String(org.Name),
		Metadata: map[string]string{
			"organization_id": strconv.Itoa(int(org.ID)),
		},
	}

	cust, err := customer.New(params)
	if err != nil {
		return "", err
	}

	org.StripeCustomerID = &cust.ID
	if err := config.DB.Save(org).Error; err != nil {
		return "", err
	}

	return cust.ID, nil
}
